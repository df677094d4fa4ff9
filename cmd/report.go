package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/kass/go-geo-label/pkg/evaluation"
	"github.com/kass/go-geo-label/pkg/labeling"
	"github.com/kass/go-geo-label/pkg/models"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

// progressPrinter redraws a progress bar on w after every batch
func progressPrinter(w io.Writer, title string) func(done, total int) {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return func(done, total int) {
		if total == 0 {
			return
		}
		pct := float64(done) / float64(total)
		fmt.Fprintf(w, "\r%s %s %s", subtitleStyle.Render(title), bar.ViewAs(pct),
			dimStyle.Render(fmt.Sprintf("%d/%d", done, total)))
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func renderStats(title string, s labeling.Stats, matched string) string {
	stats := fmt.Sprintf(
		"Coordinates: %s\n%s: %s\nCopied images: %s\nMissing images: %s",
		statStyle.Render(fmt.Sprintf("%d", s.Total)),
		matched,
		statStyle.Render(fmt.Sprintf("%d", s.Resolved)),
		statStyle.Render(fmt.Sprintf("%d", s.Copied)),
		statStyle.Render(fmt.Sprintf("%d", s.Missing)),
	)
	return boxStyle.Render(successStyle.Render(title+"\n\n") + stats)
}

func renderReport(r *evaluation.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Accuracy Report"))
	b.WriteString("\n\n")

	width := len("Region")
	for _, s := range r.Labels {
		width = max(width, lipgloss.Width(s.Label))
	}
	label := lipgloss.NewStyle().Width(width + 2)

	b.WriteString(subtitleStyle.Render(label.Render("Region") + "Correct / Total   Accuracy"))
	b.WriteString("\n")
	for _, s := range r.Labels {
		fmt.Fprintf(&b, "%s%7d / %-5d   %6.2f%%\n", label.Render(s.Label), s.Correct, s.Support, 100*s.Accuracy())
	}
	if r.Missing > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d images had no prediction", r.Missing)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Accuracy: %s", statStyle.Render(fmt.Sprintf("%.2f%%", 100*r.Accuracy))))
	return boxStyle.Render(b.String())
}

func renderRanking(path string, scores []models.LabelScore, top int) string {
	if top <= 0 || top > len(scores) {
		top = len(scores)
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(path))
	b.WriteString("\n\n")
	for i, s := range scores[:top] {
		line := fmt.Sprintf("%2d. %-22s %6.2f%%", i+1, s.Label, 100*s.Probability)
		if i == 0 {
			line = successStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
