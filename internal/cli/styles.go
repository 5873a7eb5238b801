// Package cli provides styled terminal output for the ledger commands.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// IncomeColor marks money coming in.
	IncomeColor = lipgloss.Color("#4ECDC4") // Teal
	// ExpenseColor marks money going out.
	ExpenseColor = lipgloss.Color("#FF6B6B") // Red
	// TransferColor marks money moving between accounts.
	TransferColor = lipgloss.Color("#95E1D3") // Light teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(IncomeColor)
	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ExpenseColor)
	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(TransferColor)
	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	LedgerIcon  = "📒"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the ledger icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(LedgerIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// TypeStyle returns the style used for amounts of type t.
func TypeStyle(t model.TransactionType) lipgloss.Style {
	switch t {
	case model.TypeIncome:
		return SuccessStyle
	case model.TypeExpense:
		return ErrorStyle
	}
	return InfoStyle
}

// SignedAmount renders an amount with the sign it has on the balance.
func SignedAmount(tx model.Transaction) string {
	amount := tx.Amount.StringFixed(model.AmountPlaces)
	switch tx.Type {
	case model.TypeIncome:
		return "+" + amount
	case model.TypeExpense:
		return "-" + amount
	}
	return "⇄" + amount
}

// Money renders a balance, colored by sign.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(model.AmountPlaces)
	switch {
	case d.IsNegative():
		return ErrorStyle.Render(s)
	case d.IsPositive():
		return SuccessStyle.Render(s)
	}
	return s
}

// AccountLabel is the account column of a transaction: "from → to" for transfers.
func AccountLabel(tx model.Transaction) string {
	if tx.Type == model.TypeTransfer {
		return tx.FromAccount + " → " + tx.ToAccount
	}
	return tx.Account
}

// RenderTransactions renders transactions as a table. inline maps ids to the
// error shown next to them.
func RenderTransactions(txs []model.Transaction, inline map[model.ID]string) string {
	if len(txs) == 0 {
		return SubtleStyle.Render("No transactions")
	}

	headers := []string{"ID", "DATE", "AMOUNT", "ACCOUNT", "CATEGORY", "COMMENT"}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			string(tx.ID),
			tx.Date.Format("2006-01-02 15:04"),
			SignedAmount(tx),
			AccountLabel(tx),
			tx.Category.String(),
			tx.Comment,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(joinCells(headers, widths)))
	b.WriteString("\n")
	for i, row := range rows {
		line := joinCells(row, widths)
		line = strings.Replace(line, row[2], TypeStyle(txs[i].Type).Render(row[2]), 1)
		b.WriteString(line)
		if msg, ok := inline[txs[i].ID]; ok {
			b.WriteString("  " + FormatError(msg))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

// RenderBalances renders the three balance scopes.
func RenderBalances(b model.Balances) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", TitleStyle.UnsetMargins().Render("Balance"), Money(b.Total))

	section := func(title string, m map[string]decimal.Decimal) {
		if len(m) == 0 {
			return
		}
		names := make([]string, 0, len(m))
		width := 0
		for name := range m {
			names = append(names, name)
			if w := lipgloss.Width(name); w > width {
				width = w
			}
		}
		sort.Strings(names)

		sb.WriteString("\n" + TableHeaderStyle.Render(title) + "\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "%s%s  %s\n", name, strings.Repeat(" ", width-lipgloss.Width(name)), Money(m[name]))
		}
	}
	section("Accounts", b.Accounts)
	section("Categories", b.Categories)

	return strings.TrimRight(sb.String(), "\n")
}
