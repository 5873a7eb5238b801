// Package filter derives the visible part of the ledger window from the user's filters.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// State is the set of independent filter predicates. Empty fields match everything.
type State struct {
	Dates      DateRange
	Query      string
	Accounts   []string
	Categories []model.Category
}

// IsEmpty reports whether the state filters nothing out.
func (s State) IsEmpty() bool {
	return len(s.Accounts) == 0 && len(s.Categories) == 0 &&
		strings.TrimSpace(s.Query) == "" &&
		(s.Dates.Mode == "" || s.Dates.Mode == DateAll)
}

// Predicate is a compiled State evaluated at a fixed instant.
type Predicate struct {
	accounts   map[string]struct{}
	categories map[model.Category]struct{}
	query      string
	interval   Interval
	hasDates   bool
}

// Compile prepares s for evaluation; date modes are resolved relative to now.
func Compile(s State, now time.Time) Predicate {
	p := Predicate{
		query: strings.ToLower(strings.TrimSpace(s.Query)),
	}
	if len(s.Accounts) > 0 {
		p.accounts = make(map[string]struct{}, len(s.Accounts))
		for _, a := range s.Accounts {
			p.accounts[a] = struct{}{}
		}
	}
	if len(s.Categories) > 0 {
		p.categories = make(map[model.Category]struct{}, len(s.Categories))
		for _, c := range s.Categories {
			p.categories[c] = struct{}{}
		}
	}
	p.interval, p.hasDates = Resolve(s.Dates, now)
	return p
}

// Match reports whether tx passes every predicate.
func (p Predicate) Match(tx model.Transaction) bool {
	return p.matchAccount(tx) && p.matchCategory(tx) && p.matchDate(tx) && p.matchText(tx)
}

func (p Predicate) matchAccount(tx model.Transaction) bool {
	if p.accounts == nil {
		return true
	}
	if _, ok := p.accounts[tx.Account]; ok {
		return true
	}
	if tx.Type != model.TypeTransfer {
		return false
	}
	_, from := p.accounts[tx.FromAccount]
	_, to := p.accounts[tx.ToAccount]
	return from || to
}

// matchCategory never matches a transfer while any category is selected.
func (p Predicate) matchCategory(tx model.Transaction) bool {
	if p.categories == nil {
		return true
	}
	if tx.Type == model.TypeTransfer {
		return false
	}
	_, ok := p.categories[tx.Category]
	return ok
}

func (p Predicate) matchDate(tx model.Transaction) bool {
	if !p.hasDates {
		return true
	}
	return p.interval.Contains(tx.Date)
}

func (p Predicate) matchText(tx model.Transaction) bool {
	if p.query == "" {
		return true
	}
	if strings.Contains(model.FormatAmount(tx.Amount), p.query) {
		return true
	}
	return strings.Contains(strings.ToLower(tx.Comment), p.query)
}

// Apply returns the transactions matching s, in their original order.
func Apply(txs []model.Transaction, s State, now time.Time) []model.Transaction {
	p := Compile(s, now)
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Options lists the accounts and categories present in txs, for building
// filter menus. Categories are grouped parent first; the transfer category is omitted.
func Options(txs []model.Transaction) (accounts []string, categories []model.Category) {
	seenAccounts := make(map[string]struct{})
	seenCategories := make(map[model.Category]struct{})

	addAccount := func(a string) {
		if a == "" {
			return
		}
		if _, ok := seenAccounts[a]; !ok {
			seenAccounts[a] = struct{}{}
			accounts = append(accounts, a)
		}
	}

	for _, tx := range txs {
		addAccount(tx.Account)
		if tx.Type == model.TypeTransfer {
			addAccount(tx.FromAccount)
			addAccount(tx.ToAccount)
			continue
		}
		if tx.Category.IsZero() {
			continue
		}
		if _, ok := seenCategories[tx.Category]; !ok {
			seenCategories[tx.Category] = struct{}{}
			categories = append(categories, tx.Category)
		}
	}

	sort.Strings(accounts)
	return accounts, model.SortCategories(categories)
}
