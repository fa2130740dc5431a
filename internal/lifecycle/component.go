package lifecycle

import "context"

// Component defines the lifecycle interface that all managed components must
// implement. It allows the manager to orchestrate startup and shutdown in
// dependency order.
type Component interface {
	// Start initializes and starts the component.
	// Must be idempotent - safe to call multiple times.
	Start(ctx context.Context) error

	// Stop gracefully stops the component. In-flight work should finish
	// within the context deadline.
	Stop(ctx context.Context) error

	// Name returns the human-readable name of the component.
	// Must return a non-empty string.
	Name() string
}
