package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/testutil/fakeledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, *fakeledger.Server) {
	t.Helper()

	srv := fakeledger.New()
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL(), WithRetry(service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}))
	require.NoError(t, err)
	return c, srv
}

func seed(srv *fakeledger.Server, n int) {
	txs := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, model.Transaction{
			ID:       model.ID(fmt.Sprint(i + 1)),
			Type:     model.TypeExpense,
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Account:  "Cash",
			Category: model.Category{Parent: "Food", Name: "Cafe"},
			Date:     base.Add(time.Duration(i) * time.Hour),
		})
	}
	srv.Seed(txs...)
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:3000", "://nope"} {
		_, err := NewClient(raw)
		assert.ErrorIs(t, err, common.ErrInvalidConfig, raw)
	}
}

func TestListTransactions_Pages(t *testing.T) {
	c, srv := newTestClient(t)
	seed(srv, 25)
	ctx := context.Background()

	first, err := c.ListTransactions(ctx, 20, 0)
	require.NoError(t, err)
	assert.Len(t, first.Transactions, 20)
	assert.Equal(t, 25, first.Total)
	assert.True(t, first.HasMore)
	assert.Equal(t, model.ID("25"), first.Transactions[0].ID)
	assert.Equal(t, model.Category{Parent: "Food", Name: "Cafe"}, first.Transactions[0].Category)

	second, err := c.ListTransactions(ctx, 20, 20)
	require.NoError(t, err)
	assert.Len(t, second.Transactions, 5)
	assert.False(t, second.HasMore)
}

func TestCreateUpdateDelete(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateTransaction(ctx, model.Transaction{
		Type:     model.TypeIncome,
		Amount:   decimal.RequireFromString("1500.5"),
		Account:  "Card",
		Category: model.Category{Name: "Salary"},
		Date:     base,
		Comment:  "March",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("1500.5")))
	assert.True(t, created.Date.Equal(base))

	amount := json.Number("99.90")
	comment := "March salary"
	updated, err := c.UpdateTransaction(ctx, created.ID, service.UpdateFields{
		Amount:  &amount,
		Comment: &comment,
		Type:    model.TypeIncome,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("99.9")))
	assert.Equal(t, "March salary", updated.Comment)
	assert.Equal(t, "Card", updated.Account)

	require.NoError(t, c.DeleteTransaction(ctx, created.ID))
	assert.Empty(t, srv.Transactions())

	err = c.DeleteTransaction(ctx, created.ID)
	var statusErr *service.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "transaction not found", statusErr.Message)
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain text", body: "db locked", want: "db locked"},
		{name: "json error field", body: `{"error":"category missing"}`, want: "category missing"},
		{name: "json message field", body: `{"message":"try later"}`, want: "try later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t)
			seed(srv, 1)
			srv.Fail(fakeledger.UpdateTransaction, http.StatusInternalServerError, tt.body)

			_, err := c.UpdateTransaction(context.Background(), "1", service.UpdateFields{Type: model.TypeExpense})

			var statusErr *service.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
			assert.Equal(t, tt.want, statusErr.Message)
			assert.Equal(t, 1, srv.Calls(fakeledger.UpdateTransaction), "mutations are never retried")
		})
	}
}

func TestTransportError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Close()

	err := c.DeleteTransaction(context.Background(), "1")

	var transportErr *service.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodDelete, transportErr.Method)
}

func TestReadsAreRetried(t *testing.T) {
	c, srv := newTestClient(t)
	seed(srv, 3)
	srv.FailTimes(fakeledger.Balances, http.StatusServiceUnavailable, "busy", 1)

	b, err := c.GetBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Calls(fakeledger.Balances))
	assert.True(t, b.Total.Equal(decimal.NewFromInt(-6)))
	assert.True(t, b.Categories["Food: Cafe"].Equal(decimal.NewFromInt(-6)))

	srv.Fail(fakeledger.ListAccounts, http.StatusNotFound, "gone")
	_, err = c.ListAccounts(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, srv.Calls(fakeledger.ListAccounts))
}

func TestBulkDeleteAndTransfer(t *testing.T) {
	c, srv := newTestClient(t)
	seed(srv, 4)
	ctx := context.Background()

	require.NoError(t, c.BulkDeleteTransactions(ctx, []model.ID{"1", "3"}))
	assert.Len(t, srv.Transactions(), 2)

	require.NoError(t, c.Transfer(ctx, service.TransferBody{
		Amount: json.Number("20.00"),
		From:   "Cash",
		To:     "Card",
		Date:   base.Add(24 * time.Hour).Format(time.RFC3339),
	}))

	txs := srv.Transactions()
	require.Len(t, txs, 3)
	transfer := txs[0]
	assert.Equal(t, model.TypeTransfer, transfer.Type)
	assert.Equal(t, "Cash", transfer.Account)
	assert.Equal(t, "Card", transfer.ToAccount)
	assert.Equal(t, model.TransferCategory, transfer.Category)

	err := c.Transfer(ctx, service.TransferBody{Amount: "1", From: "Cash", To: "Cash"})
	var statusErr *service.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestAccountsAndCategories(t *testing.T) {
	c, srv := newTestClient(t)
	seed(srv, 1)
	ctx := context.Background()

	accounts, err := c.CreateAccount(ctx, "Savings", "100.00")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash", "Savings"}, accounts)

	b, err := c.GetBalances(ctx)
	require.NoError(t, err)
	assert.True(t, b.Accounts["Savings"].Equal(decimal.NewFromInt(100)))

	accounts, err = c.RenameAccount(ctx, "Savings", "Deposit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash", "Deposit"}, accounts)

	accounts, err = c.DeleteAccount(ctx, "Deposit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cash"}, accounts)

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "Food"}, {Parent: "Food", Name: "Cafe"}}, categories)

	categories, err = c.CreateCategory(ctx, model.Category{Parent: "Food", Name: "Groceries"})
	require.NoError(t, err)
	assert.Contains(t, categories, model.Category{Parent: "Food", Name: "Groceries"})

	categories, err = c.RenameCategory(ctx, model.Category{Parent: "Food", Name: "Groceries"}, model.Category{Parent: "Food", Name: "Market"})
	require.NoError(t, err)
	assert.Contains(t, categories, model.Category{Parent: "Food", Name: "Market"})

	categories, err = c.DeleteCategory(ctx, model.Category{Parent: "Food", Name: "Market"})
	require.NoError(t, err)
	assert.NotContains(t, categories, model.Category{Parent: "Food", Name: "Market"})
}

func TestRules(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.CreateRule(ctx, model.AutoRule{Name: "taxi", CommentPattern: "uber", Category: "Transport"}))

	rules, err := c.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.ID("1"), rules[0].ID)

	rules[0].Category = "Transport: Taxi"
	require.NoError(t, c.UpdateRule(ctx, rules[0]))

	rules, err = c.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Transport: Taxi", rules[0].Category)

	require.NoError(t, c.DeleteRule(ctx, rules[0].ID))
	rules, err = c.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	err = c.CreateRule(ctx, model.AutoRule{Name: "incomplete"})
	assert.Error(t, err)
}

func TestNameList(t *testing.T) {
	var names nameList
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &names))
	assert.Equal(t, nameList{"a", "b"}, names)

	require.NoError(t, json.Unmarshal([]byte(`[{"name":"a"},{"name":"b"}]`), &names))
	assert.Equal(t, nameList{"a", "b"}, names)

	err := json.Unmarshal([]byte(`{"name":"a"}`), &names)
	assert.Error(t, err)
}

func TestErrorMessageHelper(t *testing.T) {
	assert.Equal(t, "plain", errorMessage([]byte("  plain \n")))
	assert.Equal(t, "{broken", errorMessage([]byte("{broken")))
	assert.Equal(t, "", errorMessage(nil))
}

func TestContextCanceled(t *testing.T) {
	c, srv := newTestClient(t)
	release := srv.Hold(fakeledger.DeleteTransaction)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.DeleteTransaction(ctx, "1")
	var transportErr *service.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
