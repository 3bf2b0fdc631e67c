// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/platform-decider/internal/ingestion"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/scoring"
	"github.com/jonathan/platform-decider/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// wrap breaks s into lines of at most width runes on word boundaries.
// A single word longer than width gets a line of its own.
func wrap(s string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(s) {
		if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIngestedPRD outputs where a PRD came from and how much text it produced.
func (p *Printer) PrintIngestedPRD(text string, metadata *ingestion.Metadata) {
	if metadata == nil {
		return
	}

	var sb strings.Builder
	source := metadata.URL
	if source == "" {
		source = metadata.Path
	}
	fmt.Fprintf(&sb, "Source:   %s\n", source)
	if metadata.Format != "" {
		fmt.Fprintf(&sb, "Format:   %s\n", metadata.Format)
	}
	if metadata.Platform != "" {
		fmt.Fprintf(&sb, "Host:     %s\n", metadata.Platform)
	}
	if metadata.Product != "" {
		fmt.Fprintf(&sb, "Product:  %s\n", metadata.Product)
	}
	if metadata.FromCache {
		sb.WriteString("Cache:    hit\n")
	}
	fmt.Fprintf(&sb, "Length:   %d chars, %d words", utf8.RuneCountInString(text), metadata.WordCount)

	p.printBox("INGESTED PRD", sb.String())
}

// PrintFactorRecord outputs the factors the decision will be made from.
func (p *Printer) PrintFactorRecord(record *types.FactorRecord) {
	if record == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Audience:     %s\n", record.User.TargetAudience)
	fmt.Fprintf(&sb, "Device:       %s\n", record.User.PrimaryDevice)
	fmt.Fprintf(&sb, "Context:      %s\n", record.User.UsageContext)
	sb.WriteString("\n")

	features := record.Features
	if len(features.NativeFeatures) > 0 {
		sb.WriteString("Native features:\n")
		count := min(len(features.NativeFeatures), maxItemsToShow)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&sb, "  • %s\n", features.NativeFeatures[i])
		}
		if len(features.NativeFeatures) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(features.NativeFeatures)-maxItemsToShow)
		}
	}

	flags := []string{}
	if features.ComplexForms {
		flags = append(flags, "forms")
	}
	if features.RealTimeSync {
		flags = append(flags, "realtime")
	}
	if features.OfflineSupport {
		flags = append(flags, "offline")
	}
	if features.MediaHeavy {
		flags = append(flags, "media")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&sb, "Flags:        %s\n", strings.Join(flags, " "))
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Complexity:   web=%s mobile=%s api=%s\n",
		record.Technical.WebComplexity, record.Technical.MobileComplexity, record.Technical.APIComplexity)
	fmt.Fprintf(&sb, "Constraints:  time=%s team=%s budget=%s",
		record.Constraints.DevelopmentTime, record.Constraints.TeamCapability, record.Constraints.Budget)

	p.printBox("FACTOR RECORD", sb.String())
}

// PrintScoreTrace outputs every scoring step that moved a score.
func (p *Printer) PrintScoreTrace(trace []scoring.TraceStep) {
	if len(trace) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-20s %8s %8s\n", "STEP", "WEB", "MOBILE")
	fmt.Fprintf(&sb, "%-20s %8s %8s\n", "base", rationale.FormatScore(scoring.BaseScore), rationale.FormatScore(scoring.BaseScore))

	unchanged := 0
	for _, step := range trace {
		if step.Delta.Web == 0 && step.Delta.Mobile == 0 {
			unchanged++
			continue
		}
		fmt.Fprintf(&sb, "%-20s %8s %8s\n", step.Step, signed(step.Delta.Web), signed(step.Delta.Mobile))
	}

	final := trace[len(trace)-1].Scores
	fmt.Fprintf(&sb, "%-20s %8s %8s", "total", rationale.FormatScore(final.Web), rationale.FormatScore(final.Mobile))
	if unchanged > 0 {
		fmt.Fprintf(&sb, "\n(%d steps with no effect)", unchanged)
	}

	p.printBox("SCORE TRACE", sb.String())
}

func signed(v float64) string {
	if v > 0 {
		return "+" + rationale.FormatScore(v)
	}
	return rationale.FormatScore(v)
}

// PrintDecision outputs the selected platforms, strategy and allocation.
func (p *Printer) PrintDecision(decision *types.Decision) {
	if decision == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Platforms:  %s\n", rationale.JoinPlatforms(decision.Platforms))
	fmt.Fprintf(&sb, "Priority:   %s\n", decision.Priority)
	fmt.Fprintf(&sb, "MVP:        %s", decision.Implementation.MVPPlatform)
	if decision.Implementation.PhasedRollout {
		sb.WriteString(" (phased rollout)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Scores:     web=%s mobile=%s\n",
		rationale.FormatScore(decision.Scores.Web), rationale.FormatScore(decision.Scores.Mobile))
	if decision.LowConfidence {
		sb.WriteString("⚠ Low confidence: no platform reached the threshold\n")
	}
	sb.WriteString("\n")

	if decision.Rationale != "" {
		sb.WriteString("Rationale:\n")
		for _, line := range wrap(decision.Rationale, boxWidth-6) {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
		sb.WriteString("\n")
	}

	alloc := decision.Implementation.FeaturesByPlatform
	fmt.Fprintf(&sb, "Features:   %d web, %d mobile, %d shared",
		len(alloc.Web), len(alloc.Mobile), len(alloc.Shared))

	p.printBox("PLATFORM DECISION", sb.String())
}
