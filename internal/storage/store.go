// Package storage persists incidents, metric points, and events in SQLite
// and materializes immutable incident snapshots for the analysis engine.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/causelab/causeway/internal/logging"
	"github.com/causelab/causeway/internal/models"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"
)

// ErrIncidentNotFound is returned when an incident id cannot be resolved.
// The API layer maps it to a 404; the analysis engine is never invoked for
// an unknown incident.
var ErrIncidentNotFound = errors.New("incident not found")

// Config configures the SQLite store.
type Config struct {
	// Path to the SQLite database file
	Path string

	// BusyTimeout is the timeout for acquiring locks in milliseconds
	BusyTimeout int

	// MaxConnections is the max number of database connections
	MaxConnections int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		BusyTimeout:    5000,
		MaxConnections: 10,
	}
}

// Incident is the persisted incident record plus ingest counters.
type Incident struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	PointCount int    `json:"point_count"`
	EventCount int    `json:"event_count"`
}

// IngestResult reports how many records an ingest call actually wrote.
// Deduplicated counts re-deliveries that were silently ignored.
type IngestResult struct {
	Accepted     int `json:"accepted"`
	Deduplicated int `json:"deduplicated"`
}

// Store is the SQLite-backed persistence layer. Safe for concurrent use;
// all synchronization is delegated to database/sql and SQLite itself.
type Store struct {
	db     *sql.DB
	config Config
	logger *logging.Logger
}

// Open opens (or creates) the database at cfg.Path and applies any pending
// schema migrations.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5000
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d",
		cfg.Path, cfg.BusyTimeout)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)

	store := &Store{
		db:     db,
		config: cfg,
		logger: logging.GetLogger("storage"),
	}

	if err := store.applyMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Start pings the database. Implements lifecycle.Component.
func (s *Store) Start(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	s.logger.Info("store ready at %s", s.config.Path)
	return nil
}

// Stop closes the database. Implements lifecycle.Component.
func (s *Store) Stop(ctx context.Context) error {
	return s.Close()
}

// Name implements lifecycle.Component.
func (s *Store) Name() string {
	return "storage"
}

// CreateIncident inserts a new incident record.
func (s *Store) CreateIncident(ctx context.Context, id, title string) (*Incident, error) {
	createdAt := time.Now().Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (id, title, created_at) VALUES (?, ?, ?)`,
		id, title, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}
	return &Incident{ID: id, Title: title, CreatedAt: createdAt}, nil
}

// GetIncident returns the incident record with its ingest counters, or
// ErrIncidentNotFound.
func (s *Store) GetIncident(ctx context.Context, id string) (*Incident, error) {
	inc := &Incident{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at,
		        (SELECT COUNT(*) FROM metric_points WHERE incident_id = incidents.id),
		        (SELECT COUNT(*) FROM events WHERE incident_id = incidents.id)
		 FROM incidents WHERE id = ?`, id).
		Scan(&inc.ID, &inc.Title, &inc.CreatedAt, &inc.PointCount, &inc.EventCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIncidentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load incident: %w", err)
	}
	return inc, nil
}

// incidentExists checks incident existence inside a transaction.
func incidentExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM incidents WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrIncidentNotFound
	}
	return err
}

// IngestPoints writes a batch of metric points. Re-delivered points with a
// (metric, timestamp) identity already present are ignored, making ingest
// idempotent under at-least-once delivery.
func (s *Store) IngestPoints(ctx context.Context, incidentID string, points []models.MetricPoint) (*IngestResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := incidentExists(ctx, tx, incidentID); err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO metric_points (incident_id, metric, ts, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &IngestResult{}
	for _, p := range points {
		res, err := stmt.ExecContext(ctx, incidentID, p.Metric, p.Timestamp, p.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to insert point %s@%d: %w", p.Metric, p.Timestamp, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			result.Deduplicated++
		} else {
			result.Accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("ingested %d points for incident %s (%d deduplicated)",
		result.Accepted, incidentID, result.Deduplicated)
	return result, nil
}

// IngestEvents writes a batch of events. Events are identified by
// (timestamp, event_type); re-deliveries are ignored.
func (s *Store) IngestEvents(ctx context.Context, incidentID string, events []models.Event) (*IngestResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := incidentExists(ctx, tx, incidentID); err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO events (incident_id, ts, event_type, metadata) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &IngestResult{}
	for _, e := range events {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event metadata: %w", err)
		}
		res, err := stmt.ExecContext(ctx, incidentID, e.Timestamp, e.Type, string(metadata))
		if err != nil {
			return nil, fmt.Errorf("failed to insert event %s@%d: %w", e.Type, e.Timestamp, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			result.Deduplicated++
		} else {
			result.Accepted++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.Debug("ingested %d events for incident %s (%d deduplicated)",
		result.Accepted, incidentID, result.Deduplicated)
	return result, nil
}

// LoadSnapshot materializes the immutable snapshot of one incident: all
// points grouped per metric and sorted by timestamp, all events sorted by
// timestamp. Ordering comes from the queries themselves so the engine
// never has to re-sort.
func (s *Store) LoadSnapshot(ctx context.Context, incidentID string) (*models.IncidentSnapshot, error) {
	if _, err := s.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}

	snapshot := &models.IncidentSnapshot{
		IncidentID: incidentID,
		Metrics:    make(map[string][]models.MetricPoint),
		Events:     []models.Event{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT metric, ts, value FROM metric_points WHERE incident_id = ? ORDER BY metric, ts`,
		incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.MetricPoint
		if err := rows.Scan(&p.Metric, &p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		snapshot.Metrics[p.Metric] = append(snapshot.Metrics[p.Metric], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points: %w", err)
	}

	eventRows, err := s.db.QueryContext(ctx,
		`SELECT ts, event_type, metadata FROM events WHERE incident_id = ? ORDER BY ts, event_type`,
		incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer eventRows.Close()

	for eventRows.Next() {
		var e models.Event
		var metadata string
		if err := eventRows.Scan(&e.Timestamp, &e.Type, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if metadata != "" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode event metadata: %w", err)
			}
		}
		snapshot.Events = append(snapshot.Events, e)
	}
	if err := eventRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return snapshot, nil
}
