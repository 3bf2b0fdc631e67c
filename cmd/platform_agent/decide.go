package main

import (
	"fmt"

	"github.com/jonathan/platform-decider/internal/decision"
	"github.com/jonathan/platform-decider/internal/observability"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/schemas"
	"github.com/spf13/cobra"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Decide the target platforms for a factor record",
	Long: `Score a factor record, select web, mobile or both, and write the decision JSON
with rationale and implementation plan.

The decision policy (thresholds, forced single platform, near-tie priority) can be
loaded from a JSON or YAML file with --config.`,
	RunE: runDecide,
}

var (
	decideFactors string
	decideOut     string
	decideConfig  string
)

func init() {
	decideCmd.Flags().StringVarP(&decideFactors, "factors", "f", "", "Path to factor record JSON (required)")
	decideCmd.Flags().StringVarP(&decideOut, "out", "o", "", "Output decision JSON path (required)")
	decideCmd.Flags().StringVar(&decideConfig, "config", "", "Path to a JSON or YAML config file with a decision section")

	_ = decideCmd.MarkFlagRequired("factors")
	_ = decideCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	record, err := loadFactorRecord(decideFactors)
	if err != nil {
		return err
	}
	policy, err := loadDecisionConfig(decideConfig)
	if err != nil {
		return err
	}
	engine, err := decision.New(policy)
	if err != nil {
		return fmt.Errorf("invalid decision policy: %w", err)
	}

	d := engine.Decide(*record)
	if err := schemas.ValidateDecision(d); err != nil {
		fmt.Fprintf(out, "Warning: decision failed schema validation: %v\n", err)
	}
	if verbose {
		observability.NewPrinter(out).PrintDecision(&d)
	}

	if err := writeJSON(decideOut, d); err != nil {
		return err
	}
	fmt.Fprintf(out, "Decision: %s (%s)\n", rationale.JoinPlatforms(d.Platforms), d.Priority)
	fmt.Fprintf(out, "Rationale: %s\n", d.Rationale)
	fmt.Fprintf(out, "Written to %s\n", decideOut)
	return nil
}
