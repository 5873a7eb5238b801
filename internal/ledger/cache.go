// Package ledger keeps the client's view of the remote ledger consistent: the
// window cache, optimistic mutations with rollback, pagination and push refresh.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Cache is the single source of truth for loaded transactions, balances,
// accounts and categories within a session. It never writes to the network.
type Cache struct {
	balances model.Balances
	// serverKeys are the balance keys of the last server-provided balances;
	// other keys exist only while a local change gives them a non-zero value.
	serverKeys balanceKeys
	window     []model.Transaction
	accounts   []string
	categories []model.Category
	total      int
	offset     int
	windowGen  uint64
	balanceGen uint64
	mu         sync.RWMutex
	hasMore    bool
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{balances: model.NewBalances()}
}

// Initialize loads the first page, the balances and the account and category
// lists. The fetches are independent: a failure in one leaves the others applied.
func (c *Cache) Initialize(ctx context.Context, api service.LedgerAPI, pageSize int) error {
	var g errgroup.Group

	g.Go(func() error {
		return c.Reload(ctx, api, pageSize)
	})
	g.Go(func() error {
		return c.RefreshBalances(ctx, api)
	})
	g.Go(func() error {
		accounts, err := api.ListAccounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to load accounts: %w", err)
		}
		c.SetAccounts(accounts)
		return nil
	})
	g.Go(func() error {
		categories, err := api.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		c.SetCategories(categories)
		return nil
	})

	return g.Wait()
}

// Reload replaces the window with the first page and resets the cursor.
func (c *Cache) Reload(ctx context.Context, api service.LedgerAPI, pageSize int) error {
	page, err := api.ListTransactions(ctx, pageSize, 0)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	c.ReplaceWindow(page.Transactions, page.Total, page.HasMore)
	return nil
}

// RefreshBalances replaces all three balance scopes with the server's values.
func (c *Cache) RefreshBalances(ctx context.Context, api service.LedgerAPI) error {
	b, err := api.GetBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	c.SetBalances(*b)
	return nil
}

// ReplaceWindow swaps the whole window. Pending page loads started before the
// swap are discarded when they complete.
func (c *Cache) ReplaceWindow(txs []model.Transaction, total int, hasMore bool) {
	window := make([]model.Transaction, len(txs))
	for i, tx := range txs {
		window[i] = tx.Normalize()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
	c.total = total
	c.hasMore = hasMore
	c.offset = len(window)
	c.windowGen++
}

// cursor reports where the next page starts and which window it belongs to.
func (c *Cache) cursor() (offset int, hasMore bool, gen uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset, c.hasMore, c.windowGen
}

// appendPage adds a page loaded for window generation gen. Records already in
// the window are skipped; nothing loaded is ever reordered. It reports false
// when the window was replaced while the page was in flight.
func (c *Cache) appendPage(gen uint64, pageSize int, page *model.Page) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.windowGen {
		return false
	}

	loaded := make(map[model.ID]struct{}, len(c.window))
	for _, tx := range c.window {
		loaded[tx.ID] = struct{}{}
	}
	for _, tx := range page.Transactions {
		if _, dup := loaded[tx.ID]; dup {
			continue
		}
		c.window = append(c.window, tx.Normalize())
	}

	c.offset += pageSize
	c.total = page.Total
	c.hasMore = page.HasMore
	return true
}

// SetBalances replaces every balance scope.
func (c *Cache) SetBalances(b model.Balances) {
	b = b.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances = b
	c.serverKeys = balanceKeys{accounts: keySet(b.Accounts), categories: keySet(b.Categories)}
	c.balanceGen++
}

// SetTotal replaces the global balance.
func (c *Cache) SetTotal(total decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances.Total = total
	c.balanceGen++
}

// SetAccountBalances replaces the per-account balances.
func (c *Cache) SetAccountBalances(m map[string]decimal.Decimal) {
	cp := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		cp[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances.Accounts = cp
	c.serverKeys.accounts = keySet(cp)
	c.balanceGen++
}

// SetCategoryBalances replaces the per-category balances.
func (c *Cache) SetCategoryBalances(m map[string]decimal.Decimal) {
	cp := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		cp[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances.Categories = cp
	c.serverKeys.categories = keySet(cp)
	c.balanceGen++
}

// SetAccounts replaces the account list.
func (c *Cache) SetAccounts(accounts []string) {
	cp := append([]string(nil), accounts...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = cp
}

// SetCategories replaces the category list.
func (c *Cache) SetCategories(categories []model.Category) {
	cp := model.SortCategories(categories)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = cp
}

// Window returns a copy of the loaded transactions, newest first.
func (c *Cache) Window() []model.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Transaction(nil), c.window...)
}

// Balances returns a copy of the balances.
func (c *Cache) Balances() model.Balances {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balances.Clone()
}

// Accounts returns the known account names.
func (c *Cache) Accounts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.accounts...)
}

// Categories returns the known categories, parents followed by their children.
func (c *Cache) Categories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Category(nil), c.categories...)
}

// Total is the server's count of all transactions.
func (c *Cache) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// HasMore reports whether more pages are available.
func (c *Cache) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasMore
}

// Lookup finds a loaded transaction by id.
func (c *Cache) Lookup(id model.ID) (model.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.window[i], true
	}
	return model.Transaction{}, false
}

// Snapshot is the token returned by ApplyLocal; rolling it back reverses
// exactly the change its command made.
type Snapshot struct {
	cmd        Command
	windowGen  uint64
	balanceGen uint64
	done       bool
}

// ApplyLocal applies cmd to the in-memory state immediately.
func (c *Cache) ApplyLocal(cmd Command) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := cmd.apply(c); err != nil {
		return nil, err
	}
	return &Snapshot{cmd: cmd, windowGen: c.windowGen, balanceGen: c.balanceGen}, nil
}

// Rollback reverses a snapshot's change. Parts of the state that were replaced
// wholesale since the change was applied are left alone. Rolling back twice is a no-op.
func (c *Cache) Rollback(s *Snapshot) {
	if s == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if s.done {
		return
	}
	s.done = true
	s.cmd.invert(c, s.windowGen == c.windowGen, s.balanceGen == c.balanceGen)
}

// Reconcile replaces the record stored under id with the server's version,
// moving balances by the difference. It is a no-op if id is no longer loaded
// or the server's record is incomplete.
func (c *Cache) Reconcile(id model.ID, authoritative model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 || !authoritative.Type.Valid() {
		return
	}

	old := c.window[i]
	next := authoritative.Normalize()
	if next.Date.IsZero() {
		next.Date = old.Date
	}
	c.window[i] = next
	c.addBalance(old, -1)
	c.addBalance(next, 1)
}

func (c *Cache) indexOf(id model.ID) int {
	for i := range c.window {
		if c.window[i].ID == id {
			return i
		}
	}
	return -1
}

type balanceKeys struct {
	accounts   map[string]struct{}
	categories map[string]struct{}
}

func keySet(m map[string]decimal.Decimal) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// addBalance moves every balance scope by sign times tx's contribution. A key
// the server never reported is dropped once it falls back to zero.
func (c *Cache) addBalance(tx model.Transaction, sign int64) {
	c.balances.Add(tx, sign)

	account, category, hasCategory := model.Touch(tx)
	if _, ok := c.serverKeys.accounts[account]; !ok && c.balances.Accounts[account].IsZero() {
		delete(c.balances.Accounts, account)
	}
	if !hasCategory {
		return
	}
	if _, ok := c.serverKeys.categories[category]; !ok && c.balances.Categories[category].IsZero() {
		delete(c.balances.Categories, category)
	}
}
