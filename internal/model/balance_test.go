package model

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTransactions() []Transaction {
	return []Transaction{
		{ID: "1", Type: TypeIncome, Amount: amt("100"), Account: "A", Category: Category{Name: "Salary"}},
		{ID: "2", Type: TypeExpense, Amount: amt("30.25"), Account: "A", Category: Category{Parent: "Food", Name: "Cafe"}},
		{ID: "3", Type: TypeExpense, Amount: amt("10"), Account: "B", Category: Category{Name: "Transport"}},
		{ID: "4", Type: TypeTransfer, Amount: amt("20"), Account: "A", FromAccount: "A", ToAccount: "B", Category: TransferCategory},
	}
}

func TestComputeBalances(t *testing.T) {
	b := ComputeBalances(sampleTransactions())

	// 100 - 30.25 - 10 - 20
	assert.True(t, b.Total.Equal(amt("39.75")), "total %s", b.Total)
	assert.True(t, b.Accounts["A"].Equal(amt("49.75")), "A %s", b.Accounts["A"])
	assert.True(t, b.Accounts["B"].Equal(amt("-10")), "B %s", b.Accounts["B"])
	assert.True(t, b.Categories["Food: Cafe"].Equal(amt("-30.25")))
	assert.NotContains(t, b.Categories, TransferCategory.String())
}

func TestComputeBalances_OrderIndependent(t *testing.T) {
	txs := sampleTransactions()
	want := ComputeBalances(txs)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]Transaction(nil), txs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.True(t, want.Equal(ComputeBalances(shuffled)))
	}
}

func TestBalances_AddInverse(t *testing.T) {
	b := ComputeBalances(sampleTransactions())
	before := b.Clone()

	tx := Transaction{Type: TypeExpense, Amount: amt("5"), Account: "A", Category: Category{Name: "Salary"}}
	b.Add(tx, 1)
	assert.False(t, before.Equal(b))

	b.Add(tx, -1)
	assert.True(t, before.Equal(b))
}

func TestBalances_CloneIsDeep(t *testing.T) {
	b := ComputeBalances(sampleTransactions())
	c := b.Clone()
	c.Accounts["A"] = amt("0")

	assert.False(t, b.Accounts["A"].Equal(amt("0")))
}
