package main

import (
	"fmt"

	"github.com/jonathan/platform-decider/internal/rendering"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a decision JSON file as a markdown document",
	RunE:  runRender,
}

var (
	renderDecision string
	renderOut      string
	renderTemplate string
)

func init() {
	renderCmd.Flags().StringVarP(&renderDecision, "decision", "d", "", "Path to decision JSON (required)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Output markdown path (required)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Custom Go text/template (defaults to the embedded template)")

	_ = renderCmd.MarkFlagRequired("decision")
	_ = renderCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	decision, err := loadDecision(renderDecision)
	if err != nil {
		return err
	}

	var markdown string
	if renderTemplate != "" {
		markdown, err = rendering.RenderMarkdownWithTemplate(decision, renderTemplate)
	} else {
		markdown, err = rendering.RenderMarkdown(decision)
	}
	if err != nil {
		return fmt.Errorf("failed to render decision: %w", err)
	}

	if err := writeFile(renderOut, []byte(markdown)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Decision document written to %s\n", renderOut)
	return nil
}
