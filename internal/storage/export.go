package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Balance scopes stored in the balances table.
const (
	ScopeTotal    = "total"
	ScopeAccount  = "account"
	ScopeCategory = "category"
)

// Run describes one export.
type Run struct {
	ExportedAt time.Time
	ServerURL  string
	Filter     string
	Rows       int
}

// SaveTransactions upserts txs in a single database transaction. progress, if
// non-nil, is called after each row.
func (s *ExportStore) SaveTransactions(ctx context.Context, txs []model.Transaction, progress func(n int)) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := validateTransaction(tx); err != nil {
			return err
		}
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (id, date, type, amount, account, to_account, category, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			type = excluded.type,
			amount = excluded.amount,
			account = excluded.account,
			to_account = excluded.to_account,
			category = excluded.category,
			comment = excluded.comment
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			string(tx.ID),
			tx.Date.UTC(),
			string(tx.Type),
			tx.Amount.StringFixed(model.AmountPlaces),
			tx.Account,
			nullable(tx.ToAccount),
			nullable(tx.Category.String()),
			nullable(tx.Comment),
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", tx.ID, err)
		}
		if progress != nil {
			progress(i + 1)
		}
	}

	return dbTx.Commit()
}

// SaveBalances replaces the stored balances.
func (s *ExportStore) SaveBalances(ctx context.Context, b model.Balances) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM balances`); err != nil {
		return fmt.Errorf("failed to clear balances: %w", err)
	}

	insert := func(scope, name string, amount decimal.Decimal) error {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO balances (scope, name, amount) VALUES (?, ?, ?)`,
			scope, name, amount.StringFixed(model.AmountPlaces))
		return err
	}

	if err := insert(ScopeTotal, "", b.Total); err != nil {
		return fmt.Errorf("failed to save total balance: %w", err)
	}
	for name, amount := range b.Accounts {
		if err := insert(ScopeAccount, name, amount); err != nil {
			return fmt.Errorf("failed to save balance of %s: %w", name, err)
		}
	}
	for name, amount := range b.Categories {
		if err := insert(ScopeCategory, name, amount); err != nil {
			return fmt.Errorf("failed to save balance of %s: %w", name, err)
		}
	}

	return dbTx.Commit()
}

// RecordRun stores metadata about an export.
func (s *ExportStore) RecordRun(ctx context.Context, run Run) error {
	if run.ExportedAt.IsZero() {
		run.ExportedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (exported_at, server_url, filter, row_count) VALUES (?, ?, ?, ?)`,
		run.ExportedAt.UTC(), nullable(run.ServerURL), nullable(run.Filter), run.Rows)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}
	return nil
}

// Transactions reads back every stored transaction, newest first.
func (s *ExportStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, amount, account, to_account, category, comment
		FROM transactions
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		var (
			tx                         model.Transaction
			id, txType, amount         string
			toAccount, category, notes sql.NullString
		)
		if err := rows.Scan(&id, &tx.Date, &txType, &amount, &tx.Account, &toAccount, &category, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.ID = model.ID(id)
		tx.Type = model.TransactionType(txType)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", id, amount, err)
		}
		tx.ToAccount = toAccount.String
		tx.Category = model.ParseCategory(category.String)
		tx.Comment = notes.String
		out = append(out, tx.Normalize())
	}
	return out, rows.Err()
}

// Balances reads back the stored balances.
func (s *ExportStore) Balances(ctx context.Context) (model.Balances, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT scope, name, amount FROM balances`)
	if err != nil {
		return model.Balances{}, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	b := model.NewBalances()
	for rows.Next() {
		var scope, name, raw string
		if err := rows.Scan(&scope, &name, &raw); err != nil {
			return model.Balances{}, fmt.Errorf("failed to scan balance: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return model.Balances{}, fmt.Errorf("invalid %s balance %q: %w", scope, raw, err)
		}
		switch scope {
		case ScopeTotal:
			b.Total = amount
		case ScopeAccount:
			b.Accounts[name] = amount
		case ScopeCategory:
			b.Categories[name] = amount
		}
	}
	return b, rows.Err()
}

// Runs lists past exports, oldest first.
func (s *ExportStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exported_at, server_url, filter, row_count FROM exports ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var (
			run            Run
			server, filter sql.NullString
		)
		if err := rows.Scan(&run.ExportedAt, &server, &filter, &run.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		run.ServerURL = server.String
		run.Filter = filter.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
