// Package model defines the ledger records shared by the client components.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a transaction records.
type TransactionType string

const (
	// TypeIncome adds the amount to its account.
	TypeIncome TransactionType = "income"
	// TypeExpense subtracts the amount from its account.
	TypeExpense TransactionType = "expense"
	// TypeTransfer moves the amount between two local accounts.
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// ID is a server-assigned transaction identifier. The server may send it as a
// JSON number or string; both decode to the same ID.
type ID string

// UnmarshalJSON accepts numeric and string identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid transaction id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits purely numeric identifiers as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Transaction is a single ledger record.
type Transaction struct {
	Date        time.Time
	ID          ID
	Account     string
	FromAccount string
	ToAccount   string
	Comment     string
	Category    Category
	Type        TransactionType
	Amount      decimal.Decimal
}

// Normalize enforces the transfer invariant: a transfer's account mirrors its
// source account and its category is the reserved transfer category.
func (t Transaction) Normalize() Transaction {
	if t.Type != TypeTransfer {
		t.FromAccount = ""
		t.ToAccount = ""
		return t
	}
	if t.FromAccount == "" {
		t.FromAccount = t.Account
	}
	t.Account = t.FromAccount
	t.Category = TransferCategory
	return t
}

// Equal reports whether two transactions hold the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Type == o.Type &&
		t.Amount.Equal(o.Amount) &&
		t.Account == o.Account &&
		t.FromAccount == o.FromAccount &&
		t.ToAccount == o.ToAccount &&
		t.Category == o.Category &&
		t.Comment == o.Comment &&
		t.Date.Equal(o.Date)
}

type transactionJSON struct {
	ID          ID              `json:"id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    Category        `json:"category"`
	Account     string          `json:"account"`
	FromAccount string          `json:"from_account,omitempty"`
	ToAccount   string          `json:"to_account,omitempty"`
	Date        string          `json:"date"`
	Comment     string          `json:"comment,omitempty"`
}

// MarshalJSON encodes the transaction in the remote service's field layout.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        t.Type,
		Category:    t.Category,
		Account:     t.Account,
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
		Date:        t.Date.Format(time.RFC3339),
		Comment:     t.Comment,
	})
}

// UnmarshalJSON decodes the remote service's field layout.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}

	*t = Transaction{
		ID:          raw.ID,
		Amount:      raw.Amount,
		Type:        raw.Type,
		Category:    raw.Category,
		Account:     raw.Account,
		FromAccount: raw.FromAccount,
		ToAccount:   raw.ToAccount,
		Date:        date,
		Comment:     raw.Comment,
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads the date formats the remote service and users send. Values
// without a zone are interpreted in local time. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Page is one slice of the remote ledger, newest first.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	HasMore      bool          `json:"hasMore"`
}
