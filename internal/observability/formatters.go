// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/screening-agent/internal/types"
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

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// writeList appends up to limit bullet items under heading.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", truncate(items[i], 50)))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintCandidateAnalysis outputs a human-readable summary of a resume analysis.
func (p *Printer) PrintCandidateAnalysis(role string, analysis *types.CandidateAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", analysis.Name))
	sb.WriteString(fmt.Sprintf("Role:      %s\n", role))
	if analysis.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone:     %s\n", analysis.Phone))
	}
	if analysis.MatchRate != "" {
		sb.WriteString(fmt.Sprintf("Match:     %s\n", analysis.MatchRate))
	}
	if analysis.Rating != "" {
		sb.WriteString(fmt.Sprintf("Rating:    %s\n", analysis.Rating))
	}
	if analysis.Decision != "" {
		sb.WriteString(fmt.Sprintf("Decision:  %s\n", analysis.Decision))
	}
	sb.WriteString("\n")

	writeList(&sb, "Skills", analysis.Skills, maxItemsToShow)
	writeList(&sb, "Reasons", analysis.Reasons, 3)
	writeList(&sb, "Interview questions", analysis.Questions, types.MaxRating+2)

	p.printBox("CANDIDATE ANALYSIS", strings.TrimSuffix(sb.String(), "\n\n"))
}

// PrintConversation outputs the speaker-labelled turns of an interview.
func (p *Printer) PrintConversation(conv types.Conversation) {
	if len(conv.Turns) == 0 {
		p.printBox("INTERVIEW CONVERSATION", "(empty)")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d turns\n\n", len(conv.Turns)))
	for i, turn := range conv.Turns {
		sb.WriteString(fmt.Sprintf("%-9s %s", string(turn.Speaker)+":", turn.Text))
		if i < len(conv.Turns)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("INTERVIEW CONVERSATION", sb.String())
}

// PrintEvaluation outputs the final decision, ratings and feedback.
func (p *Printer) PrintEvaluation(eval *types.Evaluation) {
	if eval == nil {
		return
	}

	var sb strings.Builder
	icon := "❌"
	if eval.FinalDecision.Decision == types.DecisionAccepted {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, eval.FinalDecision.Decision))
	if eval.FinalDecision.ConfidenceScore != "" {
		sb.WriteString(fmt.Sprintf("  (confidence: %s)", eval.FinalDecision.ConfidenceScore))
	}
	sb.WriteString("\n\n")

	if len(eval.FinalDecision.Ratings) > 0 {
		sb.WriteString("Ratings:\n")
		categories := make([]string, 0, len(eval.FinalDecision.Ratings))
		for c := range eval.FinalDecision.Ratings {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			r := eval.FinalDecision.Ratings[c]
			stars := strings.Repeat("★", r) + strings.Repeat("☆", max(types.MaxRating-r, 0))
			sb.WriteString(fmt.Sprintf("  %-26s %s\n", truncate(c, 26), stars))
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Strengths", eval.Strengths, 3)
	writeList(&sb, "Areas for improvement", eval.AreasForImprovement, 3)
	writeList(&sb, "Alternate roles", eval.AlternateRoles, 3)

	p.printBox("FINAL EVALUATION", strings.TrimSuffix(sb.String(), "\n\n"))
}

// ScreeningLine is one row of a batch screening summary.
type ScreeningLine struct {
	File     string
	Name     string
	Decision string
	Err      error
}

// PrintScreeningSummary outputs one line per screened resume.
func (p *Printer) PrintScreeningSummary(lines []ScreeningLine) {
	if len(lines) == 0 {
		return
	}

	var sb strings.Builder
	failed := 0
	for i, l := range lines {
		if l.Err != nil {
			failed++
			sb.WriteString(fmt.Sprintf("⚠ %s: %v", l.File, l.Err))
		} else {
			sb.WriteString(fmt.Sprintf("• %s: %s (%s)", l.File, l.Name, l.Decision))
		}
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\n\n%d screened, %d failed", len(lines)-failed, failed))

	p.printBox("SCREENING SUMMARY", sb.String())
}
