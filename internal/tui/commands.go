package tui

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, m.config.RequestTimeout)
}

// startSession performs the initial load.
func (m Model) startSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return sessionStartedMsg{err: m.session.Start(ctx)}
	}
}

// loadMore fetches the next page into the cache.
func (m Model) loadMore() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		loaded, err := m.session.Feeder.LoadMore(ctx)
		return pageLoadedMsg{loaded: loaded, err: err}
	}
}

// reload replaces the window with the first page and refreshes balances.
func (m Model) reload() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		return reloadedMsg{err: m.session.Refresh(ctx)}
	}
}

// remove deletes a confirmed transaction.
func (m Model) remove(id model.ID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		err := m.session.Coordinator.Remove(ctx, ledger.RemoveIntent{ID: id, Confirmed: true})
		return removedMsg{err: err}
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.config.RefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m Model) expireAlert(seq int) tea.Cmd {
	return tea.Tick(m.config.AlertTimeout, func(time.Time) tea.Msg {
		return alertExpiredMsg{seq: seq}
	})
}
