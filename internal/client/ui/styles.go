// Package ui holds the CLI's output palette and formatters.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorSuccess = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	ColorError   = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	ColorPrimary = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "8", Dark: "7"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}

	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleKey     lipgloss.Style
	StyleTitle   lipgloss.Style

	IconSuccess = "✔"
	IconError   = "✘"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
)

func init() {
	SetTheme("auto")
}

// SetTheme applies "auto", "dark" or "light".
func SetTheme(theme string) {
	switch theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleKey = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleTitle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Underline(true)
}

func FormatSuccess(msg string) string {
	return StyleSuccess.Render(IconSuccess + " " + msg)
}

func FormatError(msg string) string {
	return StyleError.Render(IconError + " " + msg)
}

func FormatWarning(msg string) string {
	return StyleWarning.Render(IconWarning + " " + msg)
}

func FormatInfo(msg string) string {
	return StyleMuted.Render(IconInfo + " " + msg)
}

func FormatTitle(title string) string {
	return StyleTitle.Render(title)
}

// Field is one line of a key/value listing.
type Field struct {
	Key   string
	Value string
}

// RenderFields aligns keys into a column. Empty values are skipped.
func RenderFields(fields []Field) string {
	width := 0
	for _, f := range fields {
		if f.Value != "" && len(f.Key) > width {
			width = len(f.Key)
		}
	}

	var b strings.Builder
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		key := fmt.Sprintf("%-*s", width, f.Key)
		b.WriteString("  ")
		b.WriteString(StyleKey.Render(key))
		b.WriteString("  ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}
