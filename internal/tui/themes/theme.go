// Package themes holds the color schemes of the ledger browser.
package themes

import (
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Header      lipgloss.Style
	Normal      lipgloss.Style
	Selected    lipgloss.Style
	Income      lipgloss.Style
	Expense     lipgloss.Style
	Transfer    lipgloss.Style
	InlineError lipgloss.Style
	Alert       lipgloss.Style
	StatusBar   lipgloss.Style
	Filter      lipgloss.Style
	Muted       lipgloss.Color
	Primary     lipgloss.Color
	Border      lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#7c3aed"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a78bfa")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),

	Income: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Expense: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	Transfer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")),

	InlineError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Italic(true),
	Alert: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#ef4444")).
		Bold(true).
		Padding(0, 1),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	Filter: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")),
}

// Amount returns the style for amounts of the given type.
func (t Theme) Amount(typ model.TransactionType) lipgloss.Style {
	switch typ {
	case model.TypeIncome:
		return t.Income
	case model.TypeExpense:
		return t.Expense
	}
	return t.Transfer
}
