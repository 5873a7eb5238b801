package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/testutil/fakeledger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 13, 12, 0, 0, 0, time.Local)

// newTestModel starts a browser over a fake ledger seeded with n transactions.
// Every fifth transaction is a coffee on the card.
func newTestModel(t *testing.T, n int) (Model, *fakeledger.Server) {
	t.Helper()

	srv := fakeledger.New()
	t.Cleanup(srv.Close)

	txs := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := model.Transaction{
			ID:       model.ID(fmt.Sprint(i + 1)),
			Type:     model.TypeExpense,
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Account:  "Cash",
			Category: model.Category{Name: "Food"},
			Date:     now.Add(-time.Duration(n-i) * time.Hour),
			Comment:  fmt.Sprintf("groceries %d", i+1),
		}
		if i%5 == 0 {
			tx.Account = "Card"
			tx.Category = model.Category{Parent: "Food", Name: "Cafe"}
			tx.Comment = "coffee"
		}
		txs = append(txs, tx)
	}
	srv.Seed(txs...)

	client, err := api.NewClient(srv.URL(), api.WithRetry(service.RetryOptions{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}))
	require.NoError(t, err)

	session := ledger.NewSession(client, ledger.Options{Now: func() time.Time { return now }})

	cfg := defaultConfig()
	cfg.Width, cfg.Height = 120, 20+chrome
	m := newModel(context.Background(), session, cfg)

	m, _ = update(m, m.startSession()())
	require.NoError(t, m.lastError)
	return m, srv
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys string) (Model, tea.Cmd) {
	return update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func TestModel_InitialLoad(t *testing.T) {
	m, _ := newTestModel(t, 45)

	assert.True(t, m.ready)
	assert.Len(t, m.visible, ledger.DefaultPageSize)
	assert.Equal(t, model.ID("45"), m.visible[0].ID)

	view := m.View()
	assert.Contains(t, view, "20 shown, 20 of 45 loaded")
	assert.Contains(t, view, "no filters")
}

func TestModel_LoadingView(t *testing.T) {
	srv := fakeledger.New()
	defer srv.Close()
	client, err := api.NewClient(srv.URL())
	require.NoError(t, err)

	m := newModel(context.Background(), ledger.NewSession(client, ledger.Options{}), defaultConfig())

	assert.Contains(t, m.View(), "Loading ledger...")
	assert.NotNil(t, m.Init())
}

func TestModel_LoadMoreAtBottom(t *testing.T) {
	m, srv := newTestModel(t, 45)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.False(t, m.loadingMore)

	m, cmd := press(m, "G")
	assert.Equal(t, 19, m.cursor)
	assert.True(t, m.loadingMore)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "loading more")

	// a second request is not issued while the first is in flight
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, m.loadingMore)

	m, _ = update(m, m.loadMore()())
	assert.False(t, m.loadingMore)
	assert.Len(t, m.visible, 40)
	assert.Equal(t, 2, srv.Calls(fakeledger.ListTransactions))

	m, _ = press(m, "G")
	m, _ = update(m, m.loadMore()())
	assert.Len(t, m.visible, 45)
	assert.Contains(t, m.View(), "end of ledger")

	// nothing left to fetch
	m, _ = press(m, "G")
	assert.False(t, m.loadingMore)
}

func TestModel_LoadMoreError(t *testing.T) {
	m, srv := newTestModel(t, 45)
	srv.Fail(fakeledger.ListTransactions, http.StatusInternalServerError, `{"error":"db locked"}`)

	m, _ = press(m, "G")
	require.True(t, m.loadingMore)
	m, _ = update(m, m.loadMore()())

	assert.False(t, m.loadingMore)
	assert.Error(t, m.pageErr)
	assert.NoError(t, m.lastError)
	assert.Len(t, m.visible, ledger.DefaultPageSize)
	assert.Contains(t, m.View(), "db locked")

	// staying on the last row does not retry in a loop
	m, _ = update(m, refreshMsg{})
	assert.False(t, m.loadingMore)
	m, _ = press(m, "?")
	assert.False(t, m.loadingMore)
	assert.Equal(t, 2, srv.Calls(fakeledger.ListTransactions))

	// moving back onto the last row retries
	m, _ = press(m, "k")
	assert.False(t, m.loadingMore)
	assert.NoError(t, m.pageErr)
	m, cmd := press(m, "j")
	require.True(t, m.loadingMore)
	require.NotNil(t, cmd)
	m, _ = update(m, m.loadMore()())
	assert.Error(t, m.pageErr)
	assert.Equal(t, 3, srv.Calls(fakeledger.ListTransactions))

	srv.Clear(fakeledger.ListTransactions)
	m, _ = press(m, "G")
	require.True(t, m.loadingMore)
	m, _ = update(m, m.loadMore()())
	assert.NoError(t, m.pageErr)
	assert.Len(t, m.visible, 40)
	assert.NotContains(t, m.View(), "db locked")
}

func TestModel_LoadMoreRecoversAfterOneFailure(t *testing.T) {
	m, srv := newTestModel(t, 45)
	srv.FailTimes(fakeledger.ListTransactions, http.StatusInternalServerError, "boom", 1)

	m, _ = press(m, "G")
	m, _ = update(m, m.loadMore()())
	require.Error(t, m.pageErr)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	require.True(t, m.loadingMore)
	m, _ = update(m, m.loadMore()())

	assert.NoError(t, m.pageErr)
	assert.Len(t, m.visible, 40)
	assert.Equal(t, 3, srv.Calls(fakeledger.ListTransactions))
}

func TestModel_OtherErrorsDoNotBlockPaging(t *testing.T) {
	m, _ := newTestModel(t, 45)

	// a partial start failure, e.g. the category list was unavailable
	m, _ = update(m, sessionStartedMsg{err: errors.New("failed to load categories")})
	require.Error(t, m.lastError)
	assert.Contains(t, m.View(), "failed to load categories")

	m, _ = press(m, "G")
	assert.True(t, m.loadingMore)
	m, _ = update(m, m.loadMore()())
	assert.Len(t, m.visible, 40)
}

func TestModel_Filters(t *testing.T) {
	m, _ := newTestModel(t, 20)
	require.Equal(t, []string{"Card", "Cash"}, m.accounts)

	t.Run("account", func(t *testing.T) {
		m, _ := press(m, "a")
		require.Equal(t, []string{"Card"}, m.filters.Accounts)
		require.Len(t, m.visible, 4)
		for _, tx := range m.visible {
			assert.Equal(t, "Card", tx.Account)
		}
		assert.Contains(t, m.View(), "account: Card")

		m, _ = press(m, "a")
		assert.Equal(t, []string{"Cash"}, m.filters.Accounts)
		m, _ = press(m, "a")
		assert.Empty(t, m.filters.Accounts)
		assert.Len(t, m.visible, 20)
	})

	t.Run("category", func(t *testing.T) {
		m, _ := press(m, "c")
		require.Len(t, m.filters.Categories, 1)
		for _, tx := range m.visible {
			assert.Equal(t, m.filters.Categories[0], tx.Category)
		}
	})

	t.Run("date cycles without custom", func(t *testing.T) {
		m, _ := press(m, "t")
		assert.Equal(t, filter.DateToday, m.filters.Dates.Mode)
		for i := 0; i < len(filter.Modes)-2; i++ {
			m, _ = press(m, "t")
		}
		assert.Equal(t, filter.DateAll, m.filters.Dates.Mode)
	})

	t.Run("clear", func(t *testing.T) {
		m, _ := press(m, "a")
		m, _ = press(m, "t")
		m, _ = press(m, "x")
		assert.True(t, m.filters.IsEmpty())
		assert.Len(t, m.visible, 20)
	})
}

func TestModel_Search(t *testing.T) {
	m, _ := newTestModel(t, 20)

	m, _ = press(m, "/")
	require.Equal(t, StateSearch, m.state)

	// keys are typed into the query, not interpreted as commands
	m, _ = press(m, "coffee")
	assert.Equal(t, "coffee", m.filters.Query)
	assert.False(t, m.quitting)
	require.Len(t, m.visible, 4)
	for _, tx := range m.visible {
		assert.Equal(t, "coffee", tx.Comment)
	}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowse, m.state)
	assert.Contains(t, m.View(), `search: "coffee"`)

	m, _ = press(m, "/")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.filters.Query)
	assert.Len(t, m.visible, 20)
}

func TestModel_Delete(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		m, srv := newTestModel(t, 5)
		id := m.visible[0].ID

		m, _ = press(m, "d")
		require.Equal(t, StateConfirmDelete, m.state)
		assert.Contains(t, m.View(), "Delete transaction 5?")

		m, cmd := press(m, "y")
		require.NotNil(t, cmd)
		assert.Equal(t, StateBrowse, m.state)

		m, _ = update(m, m.remove(id)())
		assert.NoError(t, m.lastError)
		assert.Len(t, m.visible, 4)
		for _, tx := range srv.Transactions() {
			assert.NotEqual(t, id, tx.ID)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		m, srv := newTestModel(t, 5)

		m, _ = press(m, "d")
		m, _ = press(m, "n")

		assert.Equal(t, StateBrowse, m.state)
		assert.Empty(t, m.pendingDelete)
		assert.Len(t, srv.Transactions(), 5)
	})

	t.Run("rejected by server", func(t *testing.T) {
		m, srv := newTestModel(t, 5)
		srv.Fail(fakeledger.DeleteTransaction, http.StatusInternalServerError, `{"error":"db locked"}`)
		id := m.visible[0].ID

		m, _ = update(m, m.remove(id)())

		// the failure is reported inline, not as a browser error
		assert.NoError(t, m.lastError)
		require.Len(t, m.visible, 5)
		assert.Equal(t, id, m.visible[0].ID)

		lines := strings.Split(m.View(), "\n")
		var row string
		for _, line := range lines {
			if strings.Contains(line, "-5.00") {
				row = line
			}
		}
		assert.Contains(t, row, "db locked")
	})
}

func TestModel_Alerts(t *testing.T) {
	m, _ := newTestModel(t, 3)

	m, cmd := update(m, alertMsg{alert: ledger.Alert{Op: "transfer", Message: "Network error"}})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Network error")
	seq := m.alertSeq

	m, _ = update(m, alertMsg{alert: ledger.Alert{Op: "delete", Message: "db locked"}})
	m, _ = update(m, alertExpiredMsg{seq: seq})
	assert.Contains(t, m.View(), "db locked")

	m, _ = update(m, alertExpiredMsg{seq: m.alertSeq})
	assert.Nil(t, m.alert)
	assert.NotContains(t, m.View(), "db locked")
}

func TestModel_PushUpdatesBecomeVisible(t *testing.T) {
	m, _ := newTestModel(t, 3)

	m.session.Cache.ReplaceWindow([]model.Transaction{{
		ID: "9", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "Cash",
		Category: model.Category{Name: "Salary"}, Date: now,
	}}, 1, false)

	m, cmd := update(m, refreshMsg{})
	assert.NotNil(t, cmd)
	require.Len(t, m.visible, 1)
	assert.Equal(t, model.ID("9"), m.visible[0].ID)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, 3)

	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_HelpAndResize(t *testing.T) {
	m, _ := newTestModel(t, 3)

	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 12})
	assert.Equal(t, 5, m.listHeight())

	short := m.View()
	m, _ = press(m, "?")
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "clear filters")
	assert.NotContains(t, short, "clear filters")
}

func TestAlertSink(t *testing.T) {
	ch := make(chan ledger.Alert, 1)
	sink := AlertSink(ch)

	sink(ledger.Alert{Message: "first"})
	sink(ledger.Alert{Message: "dropped"})

	require.Len(t, ch, 1)
	assert.Equal(t, "first", (<-ch).Message)
}

func TestRun_RequiresSession(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil, nil))
}
