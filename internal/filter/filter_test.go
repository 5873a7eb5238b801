package filter

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var now = time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func window() []model.Transaction {
	return []model.Transaction{
		{ID: "1", Type: model.TypeIncome, Amount: decimal.RequireFromString("100"), Account: "Card", Category: model.Category{Name: "Salary"}, Date: day(2024, 3, 13, 9), Comment: "March pay"},
		{ID: "2", Type: model.TypeExpense, Amount: decimal.RequireFromString("12.5"), Account: "Cash", Category: model.Category{Parent: "Food", Name: "Cafe"}, Date: day(2024, 3, 12, 18), Comment: "Latte"},
		{ID: "3", Type: model.TypeExpense, Amount: decimal.RequireFromString("40"), Account: "Card", Category: model.Category{Name: "Food"}, Date: day(2024, 3, 4, 10)},
		{ID: "4", Type: model.TypeTransfer, Amount: decimal.RequireFromString("50"), Account: "Card", FromAccount: "Card", ToAccount: "Cash", Category: model.TransferCategory, Date: day(2024, 3, 11, 8)},
		{ID: "5", Type: model.TypeExpense, Amount: decimal.RequireFromString("7"), Account: "Cash", Category: model.Category{Name: "Transport"}, Date: day(2023, 12, 31, 23)},
	}
}

func ids(txs []model.Transaction) []model.ID {
	out := make([]model.ID, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []model.ID
	}{
		{
			name:  "empty state keeps everything in order",
			state: State{},
			want:  []model.ID{"1", "2", "3", "4", "5"},
		},
		{
			name:  "account filter matches either transfer leg",
			state: State{Accounts: []string{"Cash"}},
			want:  []model.ID{"2", "4", "5"},
		},
		{
			name:  "accounts combine with OR",
			state: State{Accounts: []string{"Cash", "Card"}},
			want:  []model.ID{"1", "2", "3", "4", "5"},
		},
		{
			name:  "parent category does not match children",
			state: State{Categories: []model.Category{{Name: "Food"}}},
			want:  []model.ID{"3"},
		},
		{
			name:  "child category",
			state: State{Categories: []model.Category{{Parent: "Food", Name: "Cafe"}}},
			want:  []model.ID{"2"},
		},
		{
			name:  "transfers vanish under any category filter",
			state: State{Categories: []model.Category{model.TransferCategory}},
			want:  []model.ID{},
		},
		{
			name:  "text matches amount string",
			state: State{Query: "12.5"},
			want:  []model.ID{"2"},
		},
		{
			name:  "text matches comment case-insensitively",
			state: State{Query: "LATTE"},
			want:  []model.ID{"2"},
		},
		{
			name:  "predicates AND together",
			state: State{Accounts: []string{"Card"}, Query: "pay"},
			want:  []model.ID{"1"},
		},
		{
			name:  "today",
			state: State{Dates: DateRange{Mode: DateToday}},
			want:  []model.ID{"1"},
		},
		{
			name:  "yesterday",
			state: State{Dates: DateRange{Mode: DateYesterday}},
			want:  []model.ID{"2"},
		},
		{
			name:  "current week starts Monday",
			state: State{Dates: DateRange{Mode: DateCurrentWeek}},
			want:  []model.ID{"1", "2", "4"},
		},
		{
			name:  "last week",
			state: State{Dates: DateRange{Mode: DateLastWeek}},
			want:  []model.ID{"3"},
		},
		{
			name:  "current year",
			state: State{Dates: DateRange{Mode: DateCurrentYear}},
			want:  []model.ID{"1", "2", "3", "4"},
		},
		{
			name:  "last year",
			state: State{Dates: DateRange{Mode: DateLastYear}},
			want:  []model.ID{"5"},
		},
		{
			name:  "custom range open at the end",
			state: State{Dates: DateRange{Mode: DateCustom, From: day(2024, 3, 11, 0)}},
			want:  []model.ID{"1", "2", "4"},
		},
		{
			name:  "custom range open at the start",
			state: State{Dates: DateRange{Mode: DateCustom, To: day(2024, 3, 4, 0)}},
			want:  []model.ID{"3", "5"},
		},
		{
			name:  "custom range includes the end day",
			state: State{Dates: DateRange{Mode: DateCustom, From: day(2024, 3, 4, 0), To: day(2024, 3, 11, 0)}},
			want:  []model.ID{"3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(window(), tt.state, now)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_YearBoundaries(t *testing.T) {
	minute := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, time.UTC)
	}
	txs := []model.Transaction{
		{ID: "new-year", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "A", Date: minute(2025, 1, 1, 0, 0)},
		{ID: "last-minute", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "A", Date: minute(2024, 12, 31, 23, 59)},
		{ID: "march", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "A", Date: minute(2024, 3, 13, 9, 0)},
		{ID: "first-minute", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "A", Date: minute(2024, 1, 1, 0, 0)},
		{ID: "eve", Type: model.TypeIncome, Amount: decimal.NewFromInt(1), Account: "A", Date: minute(2023, 12, 31, 23, 59)},
	}

	tests := []struct {
		name  string
		dates DateRange
		want  []model.ID
	}{
		{name: "current year", dates: DateRange{Mode: DateCurrentYear}, want: []model.ID{"last-minute", "march", "first-minute"}},
		{name: "last year", dates: DateRange{Mode: DateLastYear}, want: []model.ID{"eve"}},
		{name: "from only", dates: DateRange{Mode: DateCustom, From: day(2024, 12, 31, 12)}, want: []model.ID{"new-year", "last-minute"}},
		{name: "to only", dates: DateRange{Mode: DateCustom, To: day(2024, 1, 1, 12)}, want: []model.ID{"first-minute", "eve"}},
		{name: "neither bound", dates: DateRange{Mode: DateCustom}, want: []model.ID{"new-year", "last-minute", "march", "first-minute", "eve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(txs, State{Dates: tt.dates}, now)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_TodayExcludesYesterday(t *testing.T) {
	tx := model.Transaction{ID: "y", Type: model.TypeExpense, Amount: decimal.NewFromInt(1), Account: "A", Date: now.AddDate(0, 0, -1)}

	assert.Empty(t, Apply([]model.Transaction{tx}, State{Dates: DateRange{Mode: DateToday}}, now))
	assert.Len(t, Apply([]model.Transaction{tx}, State{Dates: DateRange{Mode: DateYesterday}}, now), 1)
}

func TestApply_TransferWithLegacyCategoryHidden(t *testing.T) {
	tx := model.Transaction{ID: "t", Type: model.TypeTransfer, Amount: decimal.NewFromInt(5), Account: "A", FromAccount: "A", ToAccount: "B", Category: model.Category{Name: "Transfer"}, Date: now}

	got := Apply([]model.Transaction{tx}, State{Categories: []model.Category{{Name: "Transfer"}}}, now)
	assert.Empty(t, got)
}

func TestApply_PredicatesCommute(t *testing.T) {
	accounts := State{Accounts: []string{"Cash"}}
	categories := State{Categories: []model.Category{{Parent: "Food", Name: "Cafe"}, {Name: "Transport"}}}
	both := State{Accounts: accounts.Accounts, Categories: categories.Categories}

	direct := Apply(window(), both, now)
	chained := Apply(Apply(window(), accounts, now), categories, now)
	reversed := Apply(Apply(window(), categories, now), accounts, now)

	assert.Equal(t, ids(direct), ids(chained))
	assert.Equal(t, ids(direct), ids(reversed))
}

func TestResolve_SundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 20, 0, 0, 0, time.UTC)

	iv, ok := Resolve(DateRange{Mode: DateCurrentWeek}, sunday)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), iv.From)
	assert.Equal(t, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC), iv.To)
}

func TestResolve_Unbounded(t *testing.T) {
	_, ok := Resolve(DateRange{Mode: DateAll}, now)
	assert.False(t, ok)

	_, ok = Resolve(DateRange{Mode: DateCustom}, now)
	assert.False(t, ok)

	iv, ok := Resolve(DateRange{Mode: DateCustom, From: day(2024, 1, 1, 12)}, now)
	require.True(t, ok)
	assert.True(t, iv.Contains(day(2030, 1, 1, 0)))
	assert.False(t, iv.Contains(day(2023, 12, 31, 23)))
}

func TestParseDateMode(t *testing.T) {
	m, err := ParseDateMode("last_week")
	require.NoError(t, err)
	assert.Equal(t, DateLastWeek, m)

	m, err = ParseDateMode("")
	require.NoError(t, err)
	assert.Equal(t, DateAll, m)

	_, err = ParseDateMode("fortnight")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	accounts, categories := Options(window())

	assert.Equal(t, []string{"Card", "Cash"}, accounts)
	assert.Equal(t, []model.Category{
		{Name: "Food"},
		{Parent: "Food", Name: "Cafe"},
		{Name: "Salary"},
		{Name: "Transport"},
	}, categories)
}

func TestStateIsEmpty(t *testing.T) {
	assert.True(t, State{}.IsEmpty())
	assert.True(t, State{Dates: DateRange{Mode: DateAll}, Query: "  "}.IsEmpty())
	assert.False(t, State{Query: "x"}.IsEmpty())
}
