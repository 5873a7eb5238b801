package ledger

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
)

// Options configures a Session.
type Options struct {
	// Now is the clock used for default dates and date filters.
	Now func() time.Time
	// Alerts receives transient failure notices. Defaults to a no-op.
	Alerts func(Alert)
	// NewID mints provisional ids for optimistic creates.
	NewID    func() model.ID
	PageSize int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Alerts == nil {
		o.Alerts = func(Alert) {}
	}
	if o.NewID == nil {
		o.NewID = func() model.ID { return model.ID("tmp-" + uuid.NewString()) }
	}
	return o
}

// Session is the client's context object: one cache and the components that
// read and write it.
type Session struct {
	Cache       *Cache
	Coordinator *Coordinator
	Feeder      *Feeder
	Listener    *Listener
	api         service.LedgerAPI
	now         func() time.Time
	pageSize    int
}

// NewSession wires the components around a fresh cache.
func NewSession(api service.LedgerAPI, opts Options) *Session {
	opts = opts.withDefaults()
	cache := NewCache()
	return &Session{
		Cache:       cache,
		Coordinator: NewCoordinator(api, cache, opts),
		Feeder:      NewFeeder(api, cache, opts.PageSize),
		Listener:    NewListener(api, cache, opts.PageSize),
		api:         api,
		now:         opts.Now,
		pageSize:    opts.PageSize,
	}
}

// Start performs the initial load.
func (s *Session) Start(ctx context.Context) error {
	return s.Cache.Initialize(ctx, s.api, s.pageSize)
}

// Visible returns the loaded transactions that pass the filter.
func (s *Session) Visible(state filter.State) []model.Transaction {
	return filter.Apply(s.Cache.Window(), state, s.now())
}

// Options derives filter options from the loaded transactions.
func (s *Session) Options() (accounts []string, categories []model.Category) {
	return filter.Options(s.Cache.Window())
}

// Listen feeds push events into the listener until ctx is done. Handler
// failures go back to the channel, which logs them and keeps reading.
func (s *Session) Listen(ctx context.Context, ch service.PushChannel) error {
	return ch.Run(ctx, s.Listener.Handle)
}

// Refresh reloads the first page and the balances.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.Cache.Reload(ctx, s.api, s.pageSize); err != nil {
		return err
	}
	return s.Cache.RefreshBalances(ctx, s.api)
}
