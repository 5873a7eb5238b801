package model

import "github.com/shopspring/decimal"

// Balances holds the three balance scopes of the ledger. Balances are always
// derived from transactions and never edited on their own.
type Balances struct {
	Accounts   map[string]decimal.Decimal `json:"accountsBalance"`
	Categories map[string]decimal.Decimal `json:"categoriesBalance"`
	Total      decimal.Decimal            `json:"balance"`
}

// NewBalances returns empty balances with initialized maps.
func NewBalances() Balances {
	return Balances{
		Accounts:   make(map[string]decimal.Decimal),
		Categories: make(map[string]decimal.Decimal),
	}
}

// ComputeBalances folds a set of transactions into balances.
// Order of the input does not matter.
func ComputeBalances(txs []Transaction) Balances {
	b := NewBalances()
	for _, tx := range txs {
		b.Add(tx, 1)
	}
	return b
}

// Signed returns the transaction's contribution to the global balance.
func Signed(tx Transaction) decimal.Decimal {
	switch tx.Type {
	case TypeIncome:
		return tx.Amount
	case TypeExpense, TypeTransfer:
		return tx.Amount.Neg()
	}
	return decimal.Zero
}

// Touch lists the account and category keys a transaction contributes to.
func Touch(tx Transaction) (account, category string, hasCategory bool) {
	if tx.Type == TypeTransfer {
		from := tx.FromAccount
		if from == "" {
			from = tx.Account
		}
		return from, "", false
	}
	return tx.Account, tx.Category.String(), true
}

// Add applies sign times the transaction's contribution to every scope.
// Transfers are attributed to their source account only and skip categories.
func (b *Balances) Add(tx Transaction, sign int64) {
	if b.Accounts == nil {
		b.Accounts = make(map[string]decimal.Decimal)
	}
	if b.Categories == nil {
		b.Categories = make(map[string]decimal.Decimal)
	}

	delta := Signed(tx).Mul(decimal.NewFromInt(sign))
	b.Total = b.Total.Add(delta)

	account, category, hasCategory := Touch(tx)
	b.Accounts[account] = b.Accounts[account].Add(delta)
	if hasCategory {
		b.Categories[category] = b.Categories[category].Add(delta)
	}
}

// Clone returns a deep copy.
func (b Balances) Clone() Balances {
	out := Balances{
		Total:      b.Total,
		Accounts:   make(map[string]decimal.Decimal, len(b.Accounts)),
		Categories: make(map[string]decimal.Decimal, len(b.Categories)),
	}
	for k, v := range b.Accounts {
		out.Accounts[k] = v
	}
	for k, v := range b.Categories {
		out.Categories[k] = v
	}
	return out
}

// Equal compares balances by value.
func (b Balances) Equal(o Balances) bool {
	if !b.Total.Equal(o.Total) {
		return false
	}
	return equalMaps(b.Accounts, o.Accounts) && equalMaps(b.Categories, o.Categories)
}

func equalMaps(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
