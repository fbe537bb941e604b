package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/TobiSchelling/KPIMap/internal/kpi"
)

var (
	colorGreen = lipgloss.Color("#50C878")
	colorAmber = lipgloss.Color("#FFA500")
	colorRed   = lipgloss.Color("#FF6B6B")
	colorMuted = lipgloss.Color("#7B8794")
)

var styles = struct {
	Title lipgloss.Style
	Bold  lipgloss.Style
	Muted lipgloss.Style
	Green lipgloss.Style
	Amber lipgloss.Style
	Red   lipgloss.Style
	Box   lipgloss.Style
}{
	Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4A90E2")),
	Bold:  lipgloss.NewStyle().Bold(true),
	Muted: lipgloss.NewStyle().Foreground(colorMuted),
	Green: lipgloss.NewStyle().Foreground(colorGreen),
	Amber: lipgloss.NewStyle().Foreground(colorAmber),
	Red:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

// styled is false when stdout is piped, so output stays plain text.
var styled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func render(s lipgloss.Style, text string) string {
	if !styled {
		return text
	}
	return s.Render(text)
}

func ragStyle(rag kpi.RAG) lipgloss.Style {
	switch rag {
	case kpi.Green:
		return styles.Green
	case kpi.Amber:
		return styles.Amber
	default:
		return styles.Red
	}
}

func passIcon(passed bool) string {
	if passed {
		return render(styles.Green, "✓")
	}
	return render(styles.Red, "✗")
}
