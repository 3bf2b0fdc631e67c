package main

import (
	"fmt"

	"github.com/jonathan/platform-decider/internal/observability"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/scoring"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the web and mobile fitness scores for a factor record",
	RunE:  runScore,
}

var (
	scoreFactors string
	scoreTrace   bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreFactors, "factors", "f", "", "Path to factor record JSON (required)")
	scoreCmd.Flags().BoolVar(&scoreTrace, "trace", false, "Print the contribution of every scoring step")

	_ = scoreCmd.MarkFlagRequired("factors")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	record, err := loadFactorRecord(scoreFactors)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreTrace {
		observability.NewPrinter(out).PrintScoreTrace(scoring.Trace(*record))
		return nil
	}

	scores := scoring.Calculate(*record)
	fmt.Fprintf(out, "Web: %s\n", rationale.FormatScore(scores.Web))
	fmt.Fprintf(out, "Mobile: %s\n", rationale.FormatScore(scores.Mobile))
	return nil
}
