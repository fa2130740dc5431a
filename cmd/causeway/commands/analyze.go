package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/causelab/causeway/internal/analysis"
	"github.com/causelab/causeway/internal/config"
	"github.com/causelab/causeway/internal/models"
)

var (
	snapshotPath       string
	analyzeScoringPath string
	analyzeLimit       int
	analyzePretty      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an incident snapshot from a JSON file",
	Long: `Run root-cause analysis offline against a snapshot file and print
the result as JSON. The file holds one incident snapshot: metric series
grouped per metric plus the change events.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Path to the snapshot JSON file (required)")
	analyzeCmd.Flags().StringVar(&analyzeScoringPath, "scoring-config", "", "Path to the YAML file with scoring overrides (optional)")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0, "Maximum number of causes to report (0 = no cap)")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "Indent the JSON output")
	_ = analyzeCmd.MarkFlagRequired("snapshot")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}

	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		HandleError(err, "Failed to read snapshot file")
	}

	var snapshot models.IncidentSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		HandleError(err, "Failed to parse snapshot file")
	}
	snapshot.Normalize()

	cfg := analysis.DefaultConfig()
	if analyzeScoringPath != "" {
		loaded, err := config.LoadScoringFile(analyzeScoringPath)
		if err != nil {
			HandleError(err, "Failed to load scoring config")
		}
		cfg = *loaded
	}
	if analyzeLimit < 0 {
		HandleError(fmt.Errorf("limit must be non-negative, got %d", analyzeLimit), "Invalid flag")
	}
	cfg.MaxCauses = analyzeLimit

	result, err := analysis.NewAnalyzer(cfg, nil, nil).Analyze(context.Background(), &snapshot)
	if err != nil {
		HandleError(err, "Analysis failed")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	if analyzePretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(result); err != nil {
		HandleError(err, "Failed to write result")
	}
}
