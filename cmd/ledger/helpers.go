package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/spf13/cobra"
)

// newClient creates the REST client from the loaded configuration.
func (o *rootOptions) newClient() (*api.Client, error) {
	return api.NewClient(o.cfg.ServerURL, api.WithTimeout(o.cfg.Timeout), api.WithRetry(o.cfg.Retry))
}

// newSession wires a session to the service without loading anything.
func (o *rootOptions) newSession(alerts func(ledger.Alert)) (*ledger.Session, error) {
	client, err := o.newClient()
	if err != nil {
		return nil, err
	}
	return ledger.NewSession(client, ledger.Options{
		PageSize: o.cfg.PageSize,
		Alerts:   alerts,
	}), nil
}

// startSession connects to the service and performs the initial load.
func (o *rootOptions) startSession(ctx context.Context, alerts func(ledger.Alert)) (*ledger.Session, error) {
	session, err := o.newSession(alerts)
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx); err != nil {
		return nil, common.NewUserError("failed to load the ledger", err)
	}
	return session, nil
}

// loadAll pages through the whole ledger.
func loadAll(ctx context.Context, s *ledger.Session) error {
	for s.Cache.HasMore() {
		loaded, err := s.Feeder.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !loaded {
			break
		}
	}
	return nil
}

// loadPages loads up to n pages in total; n <= 0 loads everything.
func loadPages(ctx context.Context, s *ledger.Session, n int) error {
	if n <= 0 {
		return loadAll(ctx, s)
	}
	for i := 1; i < n && s.Cache.HasMore(); i++ {
		if _, err := s.Feeder.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

// findTransaction pages forward until the transaction with id is loaded.
func findTransaction(ctx context.Context, s *ledger.Session, id model.ID) (model.Transaction, error) {
	for {
		if tx, ok := s.Cache.Lookup(id); ok {
			return tx, nil
		}
		if !s.Cache.HasMore() {
			return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		loaded, err := s.Feeder.LoadMore(ctx)
		if err != nil {
			return model.Transaction{}, err
		}
		if !loaded {
			return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
	}
}

// filterFlags are the filter options shared by list and export.
type filterFlags struct {
	date       string
	from       string
	to         string
	search     string
	accounts   []string
	categories []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	modes := make([]string, len(filter.Modes))
	for i, m := range filter.Modes {
		modes[i] = string(m)
	}

	cmd.Flags().StringVar(&f.date, "date", "", "date range: "+strings.Join(modes, ", "))
	cmd.Flags().StringVar(&f.from, "from", "", "first day of a custom date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day of a custom date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.search, "search", "", "match comments and amounts")
	cmd.Flags().StringSliceVar(&f.accounts, "account", nil, "only these accounts (repeatable)")
	cmd.Flags().StringSliceVar(&f.categories, "category", nil, `only these categories, e.g. "Food: Cafe" (repeatable)`)
}

// state converts the flags to a filter state. --from or --to imply a custom range.
func (f *filterFlags) state() (filter.State, error) {
	mode, err := filter.ParseDateMode(f.date)
	if err != nil {
		return filter.State{}, err
	}

	dates := filter.DateRange{Mode: mode}
	if f.from != "" || f.to != "" {
		if f.date != "" && mode != filter.DateCustom {
			return filter.State{}, fmt.Errorf("--from and --to require --date=%s", filter.DateCustom)
		}
		dates.Mode = filter.DateCustom
		if dates.From, err = model.ParseDate(f.from); err != nil {
			return filter.State{}, fmt.Errorf("--from: %w", err)
		}
		if dates.To, err = model.ParseDate(f.to); err != nil {
			return filter.State{}, fmt.Errorf("--to: %w", err)
		}
	}

	categories := make([]model.Category, 0, len(f.categories))
	for _, c := range f.categories {
		categories = append(categories, model.ParseCategory(c))
	}

	return filter.State{
		Dates:      dates,
		Query:      f.search,
		Accounts:   f.accounts,
		Categories: categories,
	}, nil
}

// describe renders the filter for export records.
func (f *filterFlags) describe() string {
	var parts []string
	if f.date != "" {
		parts = append(parts, "date="+f.date)
	}
	if f.from != "" {
		parts = append(parts, "from="+f.from)
	}
	if f.to != "" {
		parts = append(parts, "to="+f.to)
	}
	for _, a := range f.accounts {
		parts = append(parts, "account="+a)
	}
	for _, c := range f.categories {
		parts = append(parts, "category="+c)
	}
	if f.search != "" {
		parts = append(parts, "search="+f.search)
	}
	return strings.Join(parts, " ")
}

// inlineErrors collects the coordinator's inline errors for txs.
func inlineErrors(s *ledger.Session, txs []model.Transaction) map[model.ID]string {
	out := make(map[model.ID]string)
	for _, tx := range txs {
		if msg, ok := s.Coordinator.InlineError(tx.ID); ok {
			out[tx.ID] = msg
		}
	}
	return out
}
