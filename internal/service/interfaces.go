// Package service defines the contracts between the ledger client and the remote service.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// LedgerAPI is the remote ledger as seen by the client.
type LedgerAPI interface {
	// Transaction operations
	ListTransactions(ctx context.Context, limit, offset int) (*model.Page, error)
	CreateTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, id model.ID, fields UpdateFields) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id model.ID) error
	BulkDeleteTransactions(ctx context.Context, ids []model.ID) error
	Transfer(ctx context.Context, req TransferBody) error

	// Balances
	GetBalances(ctx context.Context) (*model.Balances, error)

	// Account operations
	ListAccounts(ctx context.Context) ([]string, error)
	CreateAccount(ctx context.Context, name, start string) ([]string, error)
	RenameAccount(ctx context.Context, name, newName string) ([]string, error)
	DeleteAccount(ctx context.Context, name string) ([]string, error)

	// Category operations
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name model.Category) ([]model.Category, error)
	RenameCategory(ctx context.Context, name, newName model.Category) ([]model.Category, error)
	DeleteCategory(ctx context.Context, name model.Category) ([]model.Category, error)
}

// RuleAPI manages auto-categorization rules on the remote service.
type RuleAPI interface {
	ListRules(ctx context.Context) ([]model.AutoRule, error)
	CreateRule(ctx context.Context, rule model.AutoRule) error
	UpdateRule(ctx context.Context, rule model.AutoRule) error
	DeleteRule(ctx context.Context, id model.ID) error
}

// UpdateFields is the body of a partial transaction update. Type is always sent.
type UpdateFields struct {
	Amount   *json.Number          `json:"amount,omitempty"`
	Category *model.Category       `json:"category,omitempty"`
	Account  *string               `json:"account,omitempty"`
	Date     *string               `json:"date,omitempty"`
	Comment  *string               `json:"comment,omitempty"`
	Type     model.TransactionType `json:"type"`
}

// TransferBody is the body of a transfer request.
type TransferBody struct {
	Amount  json.Number `json:"amount"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Date    string      `json:"date"`
	Comment string      `json:"comment,omitempty"`
}

// Push channel event names.
const (
	EventBalance      = "balance:update"
	EventTransactions = "transactions:update"
	EventAccounts     = "accounts:update"
	EventCategories   = "categories:update"
)

// Event is a single notification from the push channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventHandler reacts to push channel events.
type EventHandler func(ctx context.Context, ev Event) error

// PushChannel delivers out-of-band change notifications until ctx is done.
type PushChannel interface {
	Run(ctx context.Context, handle EventHandler) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
