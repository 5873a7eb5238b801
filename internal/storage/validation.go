package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrSchemaTooNew       = errors.New("unsupported schema version")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction checks the fields every exported row needs.
func validateTransaction(tx model.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidTransaction, tx.ID, tx.Type)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: %s has no date", ErrInvalidTransaction, tx.ID)
	}
	return nil
}
