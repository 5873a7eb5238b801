package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/ledger"
	tea "github.com/charmbracelet/bubbletea"
)

// AlertSink returns an alert callback that forwards to ch without blocking;
// alerts are dropped while ch is full.
func AlertSink(ch chan<- ledger.Alert) func(ledger.Alert) {
	return func(a ledger.Alert) {
		select {
		case ch <- a:
		default:
		}
	}
}

// Run shows the browser until the user quits or ctx is canceled. alerts may be nil.
func Run(ctx context.Context, session *ledger.Session, alerts <-chan ledger.Alert, opts ...Option) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(ctx, session, cfg), tea.WithAltScreen(), tea.WithContext(ctx))

	if alerts != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case a := <-alerts:
					p.Send(alertMsg{alert: a})
				}
			}
		}()
	}

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
