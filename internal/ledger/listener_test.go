package ledger

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListener_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("balance update sets the total", func(t *testing.T) {
		s, _ := startSession(t, newStubAPI(3))
		accounts := s.Cache.Balances().Accounts

		err := s.Listener.Handle(ctx, service.Event{Name: service.EventBalance, Data: json.RawMessage(`1234.5`)})
		require.NoError(t, err)

		b := s.Cache.Balances()
		assert.True(t, b.Total.Equal(decimal.RequireFromString("1234.5")))
		assert.Equal(t, len(accounts), len(b.Accounts))
	})

	t.Run("empty balance update refetches", func(t *testing.T) {
		api := newStubAPI(3)
		s, _ := startSession(t, api)

		require.NoError(t, s.Listener.Handle(ctx, service.Event{Name: service.EventBalance}))
		assert.Equal(t, 2, api.count("balances"))
	})

	t.Run("account and category maps are replaced", func(t *testing.T) {
		s, _ := startSession(t, newStubAPI(3))

		require.NoError(t, s.Listener.Handle(ctx, service.Event{
			Name: service.EventAccounts,
			Data: json.RawMessage(`{"Cash": 10, "Bank": "20.5"}`),
		}))
		require.NoError(t, s.Listener.Handle(ctx, service.Event{
			Name: service.EventCategories,
			Data: json.RawMessage(`{"Food": -3}`),
		}))

		b := s.Cache.Balances()
		require.Len(t, b.Accounts, 2)
		assert.True(t, b.Accounts["Bank"].Equal(decimal.RequireFromString("20.5")))
		require.Len(t, b.Categories, 1)
		assert.True(t, b.Categories["Food"].Equal(decimal.NewFromInt(-3)))
	})

	t.Run("transactions update reloads page one", func(t *testing.T) {
		api := newStubAPI(30)
		s, _ := startSession(t, api)
		_, err := s.Feeder.LoadMore(ctx)
		require.NoError(t, err)
		require.Len(t, s.Cache.Window(), 30)

		api.mu.Lock()
		api.txs = append([]model.Transaction{{
			ID:      "99",
			Type:    model.TypeIncome,
			Amount:  decimal.NewFromInt(1),
			Account: "Cash",
			Date:    testNow,
		}}, api.txs...)
		api.mu.Unlock()

		require.NoError(t, s.Listener.Handle(ctx, service.Event{Name: service.EventTransactions}))

		window := s.Cache.Window()
		require.Len(t, window, DefaultPageSize)
		assert.Equal(t, model.ID("99"), window[0].ID)
		assert.Equal(t, 31, s.Cache.Total())
	})

	t.Run("unknown event is ignored", func(t *testing.T) {
		s, _ := startSession(t, newStubAPI(3))
		window := s.Cache.Window()

		require.NoError(t, s.Listener.Handle(ctx, service.Event{Name: "budget:update", Data: json.RawMessage(`{}`)}))
		assertSameWindow(t, window, s.Cache.Window())
	})

	t.Run("malformed payload", func(t *testing.T) {
		s, _ := startSession(t, newStubAPI(3))
		before := s.Cache.Balances()

		err := s.Listener.Handle(ctx, service.Event{Name: service.EventBalance, Data: json.RawMessage(`{"oops":true}`)})
		assert.Error(t, err)
		assertSameBalances(t, before, s.Cache.Balances())
	})
}
