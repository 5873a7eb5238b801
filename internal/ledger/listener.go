package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Listener applies push channel events to the cache.
type Listener struct {
	api      service.LedgerAPI
	cache    *Cache
	pageSize int
}

// NewListener creates a listener that refreshes cache from api.
func NewListener(api service.LedgerAPI, cache *Cache, pageSize int) *Listener {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Listener{api: api, cache: cache, pageSize: pageSize}
}

// Handle applies a single event. Unknown events are ignored.
func (l *Listener) Handle(ctx context.Context, ev service.Event) error {
	common.LogDebug("Push event", common.Fields{"event": ev.Name})

	switch ev.Name {
	case service.EventTransactions:
		// the window restarts at page one; anything loaded past it is dropped
		return l.cache.Reload(ctx, l.api, l.pageSize)

	case service.EventBalance:
		if empty(ev.Data) {
			return l.cache.RefreshBalances(ctx, l.api)
		}
		var total decimal.Decimal
		if err := json.Unmarshal(ev.Data, &total); err != nil {
			return fmt.Errorf("invalid %s payload: %w", ev.Name, err)
		}
		l.cache.SetTotal(total)
		return nil

	case service.EventAccounts:
		if empty(ev.Data) {
			return l.cache.RefreshBalances(ctx, l.api)
		}
		var m map[string]decimal.Decimal
		if err := json.Unmarshal(ev.Data, &m); err != nil {
			return fmt.Errorf("invalid %s payload: %w", ev.Name, err)
		}
		l.cache.SetAccountBalances(m)
		return nil

	case service.EventCategories:
		if empty(ev.Data) {
			return l.cache.RefreshBalances(ctx, l.api)
		}
		var m map[string]decimal.Decimal
		if err := json.Unmarshal(ev.Data, &m); err != nil {
			return fmt.Errorf("invalid %s payload: %w", ev.Name, err)
		}
		l.cache.SetCategoryBalances(m)
		return nil
	}

	common.LogDebug("Ignoring unknown push event", common.Fields{"event": ev.Name})
	return nil
}

func empty(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
