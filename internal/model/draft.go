package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a transaction as entered by the user, before validation.
type Draft struct {
	Date     time.Time
	Amount   string
	Type     TransactionType
	Category Category
	Account  string
	Comment  string
}

// Patch is a partial update. Nil fields and an empty Amount or Type are left unchanged.
type Patch struct {
	Category *Category
	Account  *string
	Date     *time.Time
	Comment  *string
	Amount   string
	Type     TransactionType
}

// ApplyTo returns a copy of tx with the patch applied. amount is the already
// validated value of p.Amount and is ignored when p.Amount is empty.
func (p Patch) ApplyTo(tx Transaction, amount decimal.Decimal) Transaction {
	if p.Amount != "" {
		tx.Amount = amount
	}
	if p.Type != "" {
		tx.Type = p.Type
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Account != nil {
		tx.Account = *p.Account
		if tx.Type == TypeTransfer {
			tx.FromAccount = *p.Account
		}
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Comment != nil {
		tx.Comment = *p.Comment
	}
	return tx.Normalize()
}

// TransferRequest moves money between two local accounts.
type TransferRequest struct {
	Date    time.Time
	Amount  string
	From    string
	To      string
	Comment string
}

// AutoRule assigns a category to imported transactions whose comment matches a pattern.
type AutoRule struct {
	ID             ID     `json:"id,omitempty"`
	Name           string `json:"name"`
	CommentPattern string `json:"comment_pattern"`
	Category       string `json:"category"`
}

// ErrIncompleteRule is returned when an auto rule is missing a field.
var ErrIncompleteRule = errors.New("name, comment pattern and category are required")

// Validate checks that every field of the rule is filled in.
func (r AutoRule) Validate() error {
	if r.Name == "" || r.CommentPattern == "" || r.Category == "" {
		return ErrIncompleteRule
	}
	return nil
}
