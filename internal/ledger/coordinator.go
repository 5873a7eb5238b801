package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// Alert is a transient, user-visible notice about a failed operation.
type Alert struct {
	TransactionID model.ID
	Op            string
	Message       string
	Kind          FailureKind
}

// RemoveIntent is a delete the user has already confirmed.
type RemoveIntent struct {
	ID        model.ID
	Confirmed bool
}

// Coordinator performs mutations against the remote ledger. Simple
// transactions are applied to the cache first and rolled back when the server
// rejects them or cannot be reached; transfers wait for the push channel.
type Coordinator struct {
	api      service.LedgerAPI
	cache    *Cache
	locks    *idLocks
	inline   map[model.ID]string
	alert    func(Alert)
	newID    func() model.ID
	now      func() time.Time
	pageSize int
	mu       sync.Mutex
}

// NewCoordinator wires a coordinator to its cache and remote service.
func NewCoordinator(api service.LedgerAPI, cache *Cache, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		api:      api,
		cache:    cache,
		locks:    newIDLocks(),
		inline:   make(map[model.ID]string),
		alert:    opts.Alerts,
		newID:    opts.NewID,
		now:      opts.Now,
		pageSize: opts.PageSize,
	}
}

// InlineError returns the error shown next to a transaction, if any.
func (c *Coordinator) InlineError(id model.ID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.inline[id]
	return msg, ok
}

// ClearInlineError drops the inline error for id; called when editing is re-entered.
func (c *Coordinator) ClearInlineError(id model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inline, id)
}

func (c *Coordinator) setInlineError(id model.ID, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inline[id] = msg
}

// fail rolls back snap (if any) and surfaces err as an alert, and as an inline
// error when inline is set.
func (c *Coordinator) fail(snap *Snapshot, op string, id model.ID, err error, inline bool) error {
	c.cache.Rollback(snap)

	kind, msg := classify(err)
	if inline && id != "" {
		c.setInlineError(id, msg)
	}
	c.alert(Alert{TransactionID: id, Op: op, Message: msg, Kind: kind})

	common.LogWarn("Ledger mutation failed", common.Fields{
		"op":             op,
		"transaction_id": id,
		"kind":           kind.String(),
		"message":        msg,
		"rolled_back":    snap != nil,
	})

	return &MutationError{Op: op, ID: id, Kind: kind, Message: msg, Err: err}
}

func (c *Coordinator) validateDraft(d model.Draft) (model.Transaction, error) {
	amount, err := model.ParseAmount(d.Amount)
	if err != nil {
		return model.Transaction{}, invalid("amount", err)
	}
	if d.Type != model.TypeIncome && d.Type != model.TypeExpense {
		return model.Transaction{}, invalid("type", ErrInvalidType)
	}
	if strings.TrimSpace(d.Account) == "" {
		return model.Transaction{}, invalid("account", ErrMissingField)
	}

	date := d.Date
	if date.IsZero() {
		date = c.now()
	}

	return model.Transaction{
		Amount:   amount,
		Type:     d.Type,
		Category: d.Category,
		Account:  strings.TrimSpace(d.Account),
		Date:     date,
		Comment:  d.Comment,
	}, nil
}

// Create adds an income or expense. The record appears in the cache under a
// provisional id at once and is swapped for the server's record on success.
func (c *Coordinator) Create(ctx context.Context, d model.Draft) (model.Transaction, error) {
	tx, err := c.validateDraft(d)
	if err != nil {
		return model.Transaction{}, err
	}
	tx.ID = c.newID()

	snap, err := c.cache.ApplyLocal(newCreateCommand(tx))
	if err != nil {
		return model.Transaction{}, err
	}

	created, err := c.api.CreateTransaction(ctx, tx)
	if err != nil {
		return model.Transaction{}, c.fail(snap, "create", tx.ID, err, false)
	}

	if created != nil && created.ID != "" && created.Type.Valid() {
		c.cache.Reconcile(tx.ID, *created)
		return *created, nil
	}
	// no usable body; the push channel will bring the authoritative record
	return tx, nil
}

func validatePatch(p model.Patch) (decimal.Decimal, error) {
	var amount decimal.Decimal
	if p.Amount != "" {
		var err error
		amount, err = model.ParseAmount(p.Amount)
		if err != nil {
			return decimal.Zero, invalid("amount", err)
		}
	}
	if p.Type != "" && !p.Type.Valid() {
		return decimal.Zero, invalid("type", ErrInvalidType)
	}
	if p.Account != nil && strings.TrimSpace(*p.Account) == "" {
		return decimal.Zero, invalid("account", ErrMissingField)
	}
	return amount, nil
}

func updateFields(next model.Transaction, p model.Patch) service.UpdateFields {
	fields := service.UpdateFields{
		Type:     next.Type,
		Category: p.Category,
		Account:  p.Account,
		Comment:  p.Comment,
	}
	if p.Amount != "" {
		n := json.Number(next.Amount.StringFixed(model.AmountPlaces))
		fields.Amount = &n
	}
	if p.Date != nil {
		d := p.Date.Format(time.RFC3339)
		fields.Date = &d
	}
	return fields
}

// Update patches a loaded transaction optimistically. On failure the previous
// record and balances are restored and the error is kept inline for id.
func (c *Coordinator) Update(ctx context.Context, id model.ID, p model.Patch) (model.Transaction, error) {
	amount, err := validatePatch(p)
	if err != nil {
		return model.Transaction{}, err
	}

	unlock := c.locks.lock(id)
	defer unlock()

	cmd := newUpdateCommand(id, p, amount)
	snap, err := c.cache.ApplyLocal(cmd)
	if err != nil {
		return model.Transaction{}, err
	}

	updated, err := c.api.UpdateTransaction(ctx, id, updateFields(cmd.next, p))
	if err != nil {
		return model.Transaction{}, c.fail(snap, "update", id, err, true)
	}

	c.ClearInlineError(id)
	if updated != nil && updated.ID != "" && updated.Type.Valid() {
		c.cache.Reconcile(id, *updated)
		return *updated, nil
	}
	return cmd.next, nil
}

// Remove deletes a confirmed transaction, optimistically.
func (c *Coordinator) Remove(ctx context.Context, intent RemoveIntent) error {
	if !intent.Confirmed {
		return invalid("confirmation", common.ErrNotConfirmed)
	}

	unlock := c.locks.lock(intent.ID)
	defer unlock()

	snap, err := c.cache.ApplyLocal(newRemoveCommand(intent.ID))
	if err != nil {
		return err
	}

	if err := c.api.DeleteTransaction(ctx, intent.ID); err != nil {
		return c.fail(snap, "delete", intent.ID, err, true)
	}

	c.ClearInlineError(intent.ID)
	return nil
}

// BulkRemove deletes several transactions and then reloads the first page,
// whether or not the delete succeeded. Nothing is applied optimistically.
func (c *Coordinator) BulkRemove(ctx context.Context, ids []model.ID) error {
	if len(ids) == 0 {
		return invalid("ids", ErrMissingField)
	}

	var deleteErr error
	if err := c.api.BulkDeleteTransactions(ctx, ids); err != nil {
		deleteErr = c.fail(nil, "bulk delete", "", err, false)
	} else {
		for _, id := range ids {
			c.ClearInlineError(id)
		}
	}

	reloadErr := c.cache.Reload(ctx, c.api, c.pageSize)
	if reloadErr == nil {
		reloadErr = c.cache.RefreshBalances(ctx, c.api)
	}
	if deleteErr != nil {
		return deleteErr
	}
	return reloadErr
}

// Transfer moves money between two accounts. The cache is not touched; the
// new record arrives through the push channel.
func (c *Coordinator) Transfer(ctx context.Context, req model.TransferRequest) error {
	amount, err := model.ParseAmount(req.Amount)
	if err != nil {
		return invalid("amount", err)
	}
	from := strings.TrimSpace(req.From)
	to := strings.TrimSpace(req.To)
	if from == "" {
		return invalid("from", ErrMissingField)
	}
	if to == "" {
		return invalid("to", ErrMissingField)
	}
	if from == to {
		return invalid("to", ErrSameAccount)
	}

	date := req.Date
	if date.IsZero() {
		date = c.now()
	}

	body := service.TransferBody{
		Amount:  json.Number(amount.StringFixed(model.AmountPlaces)),
		From:    from,
		To:      to,
		Date:    date.Format(time.RFC3339),
		Comment: req.Comment,
	}
	if err := c.api.Transfer(ctx, body); err != nil {
		return c.fail(nil, "transfer", "", err, false)
	}
	return nil
}
