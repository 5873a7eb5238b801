package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)

// stubAPI is an in-memory LedgerAPI with per-operation failure injection.
type stubAPI struct {
	calls        map[string]int
	hold         chan struct{}
	held         chan struct{}
	createErr    error
	updateErr    error
	deleteErr    error
	bulkErr      error
	transferErr  error
	listErr      error
	balancesErr  error
	lastUpdate   service.UpdateFields
	lastTransfer service.TransferBody
	txs          []model.Transaction
	accounts     []string
	categories   []model.Category
	mu           sync.Mutex
	nextID       int
}

func newStubAPI(n int) *stubAPI {
	s := &stubAPI{
		calls:      make(map[string]int),
		accounts:   []string{"Cash", "Card"},
		categories: []model.Category{{Name: "Food"}, {Parent: "Food", Name: "Cafe"}, {Name: "Salary"}},
	}
	for i := 0; i < n; i++ {
		tx := model.Transaction{
			ID:       model.ID(fmt.Sprint(n - i)),
			Type:     model.TypeExpense,
			Amount:   decimal.NewFromInt(int64(10 + i)),
			Account:  "Cash",
			Category: model.Category{Name: "Food"},
			Date:     testNow.Add(-time.Duration(i+1) * time.Hour),
			Comment:  fmt.Sprintf("purchase %d", i),
		}
		if i%3 == 0 {
			tx.Type = model.TypeIncome
			tx.Account = "Card"
			tx.Category = model.Category{Name: "Salary"}
		}
		s.txs = append(s.txs, tx)
	}
	return s
}

func (s *stubAPI) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubAPI) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

// holdPages makes page loads past the first block until release is closed.
func (s *stubAPI) holdPages() (held <-chan struct{}, release func()) {
	s.hold = make(chan struct{})
	s.held = make(chan struct{}, 8)
	return s.held, func() { close(s.hold) }
}

func (s *stubAPI) ListTransactions(ctx context.Context, limit, offset int) (*model.Page, error) {
	if offset > 0 {
		s.record("page")
		if s.hold != nil {
			s.held <- struct{}{}
			select {
			case <-s.hold:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	} else {
		s.record("list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	end := offset + limit
	if end > len(s.txs) {
		end = len(s.txs)
	}
	if offset > end {
		offset = end
	}
	return &model.Page{
		Transactions: append([]model.Transaction(nil), s.txs[offset:end]...),
		Total:        len(s.txs),
		HasMore:      end < len(s.txs),
	}, nil
}

func (s *stubAPI) CreateTransaction(_ context.Context, tx model.Transaction) (*model.Transaction, error) {
	s.record("create")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	tx.ID = model.ID(fmt.Sprintf("srv-%d", s.nextID))
	s.txs = append([]model.Transaction{tx}, s.txs...)
	return &tx, nil
}

func (s *stubAPI) UpdateTransaction(_ context.Context, _ model.ID, fields service.UpdateFields) (*model.Transaction, error) {
	s.record("update")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = fields
	return nil, s.updateErr
}

func (s *stubAPI) DeleteTransaction(_ context.Context, id model.ID) error {
	s.record("delete")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, tx := range s.txs {
		if tx.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubAPI) BulkDeleteTransactions(_ context.Context, ids []model.ID) error {
	s.record("bulk")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulkErr != nil {
		return s.bulkErr
	}
	drop := make(map[model.ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.txs[:0]
	for _, tx := range s.txs {
		if !drop[tx.ID] {
			kept = append(kept, tx)
		}
	}
	s.txs = kept
	return nil
}

func (s *stubAPI) Transfer(_ context.Context, req service.TransferBody) error {
	s.record("transfer")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTransfer = req
	return s.transferErr
}

func (s *stubAPI) GetBalances(_ context.Context) (*model.Balances, error) {
	s.record("balances")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balancesErr != nil {
		return nil, s.balancesErr
	}
	b := model.ComputeBalances(s.txs)
	return &b, nil
}

func (s *stubAPI) ListAccounts(_ context.Context) ([]string, error) {
	s.record("accounts")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.accounts...), nil
}

func (s *stubAPI) CreateAccount(_ context.Context, name, _ string) ([]string, error) {
	s.record("create account")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, name)
	return append([]string(nil), s.accounts...), nil
}

func (s *stubAPI) RenameAccount(_ context.Context, name, newName string) ([]string, error) {
	s.record("rename account")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a == name {
			s.accounts[i] = newName
		}
	}
	return append([]string(nil), s.accounts...), nil
}

func (s *stubAPI) DeleteAccount(_ context.Context, name string) ([]string, error) {
	s.record("delete account")
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []string
	for _, a := range s.accounts {
		if a != name {
			kept = append(kept, a)
		}
	}
	s.accounts = kept
	return append([]string{}, s.accounts...), nil
}

func (s *stubAPI) ListCategories(_ context.Context) ([]model.Category, error) {
	s.record("categories")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...), nil
}

func (s *stubAPI) CreateCategory(_ context.Context, c model.Category) ([]model.Category, error) {
	s.record("create category")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	return append([]model.Category(nil), s.categories...), nil
}

func (s *stubAPI) RenameCategory(_ context.Context, c, renamed model.Category) ([]model.Category, error) {
	s.record("rename category")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i] == c {
			s.categories[i] = renamed
		}
	}
	return append([]model.Category(nil), s.categories...), nil
}

func (s *stubAPI) DeleteCategory(_ context.Context, c model.Category) ([]model.Category, error) {
	s.record("delete category")
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []model.Category
	for _, cat := range s.categories {
		if cat != c {
			kept = append(kept, cat)
		}
	}
	s.categories = kept
	return append([]model.Category{}, s.categories...), nil
}

// stubRules is an in-memory RuleAPI.
type stubRules struct {
	err   error
	rules []model.AutoRule
}

func (s *stubRules) ListRules(context.Context) ([]model.AutoRule, error) {
	return s.rules, s.err
}

func (s *stubRules) CreateRule(_ context.Context, r model.AutoRule) error {
	if s.err != nil {
		return s.err
	}
	r.ID = model.ID(fmt.Sprint(len(s.rules) + 1))
	s.rules = append(s.rules, r)
	return nil
}

func (s *stubRules) UpdateRule(_ context.Context, r model.AutoRule) error {
	if s.err != nil {
		return s.err
	}
	for i := range s.rules {
		if s.rules[i].ID == r.ID {
			s.rules[i] = r
		}
	}
	return nil
}

func (s *stubRules) DeleteRule(_ context.Context, id model.ID) error {
	if s.err != nil {
		return s.err
	}
	var kept []model.AutoRule
	for _, r := range s.rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.rules = kept
	return nil
}

var (
	_ service.LedgerAPI = (*stubAPI)(nil)
	_ service.RuleAPI   = (*stubRules)(nil)
)

// alertLog collects alerts raised by a session.
type alertLog struct {
	alerts []Alert
	mu     sync.Mutex
}

func (l *alertLog) add(a Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, a)
}

func (l *alertLog) all() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Alert(nil), l.alerts...)
}
