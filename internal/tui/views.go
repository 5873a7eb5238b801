package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	sections := []string{
		m.renderHeader(),
		m.renderFilters(),
		m.renderRows(),
		m.renderFooter(),
	}
	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Loading ledger..."),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Primary).Render(m.spinner.View()),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderHeader() string {
	balances := m.session.Cache.Balances()
	title := m.theme.Title.Render(cli.LedgerIcon + " Ledger")
	balance := m.theme.Subtitle.Render("balance " + balances.Total.StringFixed(model.AmountPlaces))
	return title + "  " + balance
}

func (m Model) renderFilters() string {
	var parts []string
	if mode := m.filters.Dates.Mode; mode != "" && mode != filter.DateAll {
		parts = append(parts, "date: "+string(mode))
	}
	if len(m.filters.Accounts) > 0 {
		parts = append(parts, "account: "+strings.Join(m.filters.Accounts, ", "))
	}
	if len(m.filters.Categories) > 0 {
		names := make([]string, len(m.filters.Categories))
		for i, c := range m.filters.Categories {
			names[i] = c.String()
		}
		parts = append(parts, "category: "+strings.Join(names, ", "))
	}
	if m.state == StateSearch {
		parts = append(parts, m.search.View())
	} else if m.filters.Query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.filters.Query))
	}

	if len(parts) == 0 {
		return m.theme.StatusBar.Render("no filters")
	}
	return m.theme.Filter.Render(strings.Join(parts, "  |  "))
}

func (m Model) renderRows() string {
	page := m.listHeight()
	if len(m.visible) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No transactions")
		return lipgloss.NewStyle().Height(page).Render(empty)
	}

	end := min(m.offset+page, len(m.visible))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	return lipgloss.NewStyle().Height(page).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(i int) string {
	tx := m.visible[i]

	date := tx.Date.Format("2006-01-02")
	amount := fmt.Sprintf("%12s", cli.SignedAmount(tx))
	account := truncate(cli.AccountLabel(tx), 20)
	category := truncate(tx.Category.String(), 20)
	comment := truncate(tx.Comment, max(10, m.width-72))

	if i == m.cursor {
		row := fmt.Sprintf("%s  %s  %-20s  %-20s  %s", date, amount, account, category, comment)
		return m.theme.Selected.Render(row) + m.inlineError(tx.ID)
	}
	row := fmt.Sprintf("%s  %s  %-20s  %-20s  %s",
		date, m.theme.Amount(tx.Type).Render(amount), account, category, comment)
	return m.theme.Normal.Render(row) + m.inlineError(tx.ID)
}

func (m Model) inlineError(id model.ID) string {
	msg, ok := m.session.Coordinator.InlineError(id)
	if !ok {
		return ""
	}
	return "  " + m.theme.InlineError.Render(msg)
}

func (m Model) renderFooter() string {
	cache := m.session.Cache
	status := fmt.Sprintf("%d shown, %d of %d loaded", len(m.visible), len(cache.Window()), cache.Total())
	switch {
	case m.loadingMore:
		status += "  " + m.spinner.View() + " loading more"
	case !cache.HasMore():
		status += "  end of ledger"
	}
	return m.theme.StatusBar.Render(status)
}

func (m Model) renderStatus() string {
	switch {
	case m.state == StateConfirmDelete:
		return cli.FormatPrompt(fmt.Sprintf("Delete transaction %s? [y/N]", m.pendingDelete))
	case m.alert != nil:
		return m.theme.Alert.Render(m.alert.Message)
	case m.pageErr != nil:
		return cli.FormatError(m.pageErr.Error())
	case m.lastError != nil:
		return cli.FormatError(m.lastError.Error())
	}
	return ""
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
