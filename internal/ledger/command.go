package ledger

import (
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Command is an optimistic change to the cache. apply runs before the remote
// call; invert undoes it when the call fails. Both run with the cache lock held.
type Command interface {
	// TransactionID is the record the command changes.
	TransactionID() model.ID
	apply(c *Cache) error
	// invert undoes apply. window and balances report whether those parts of
	// the state are still the ones apply changed.
	invert(c *Cache, window, balances bool)
}

// createCommand inserts a provisional record.
type createCommand struct {
	tx model.Transaction
	// counted is set when the record lands inside the loaded range and so
	// shifts the server position of the next page.
	counted bool
}

func newCreateCommand(tx model.Transaction) *createCommand {
	return &createCommand{tx: tx.Normalize()}
}

func (cmd *createCommand) TransactionID() model.ID { return cmd.tx.ID }

func (cmd *createCommand) apply(c *Cache) error {
	// keep the window newest first without moving loaded records
	pos := len(c.window)
	for i := range c.window {
		if c.window[i].Date.Before(cmd.tx.Date) {
			pos = i
			break
		}
	}
	cmd.counted = pos < len(c.window) || !c.hasMore
	c.window = append(c.window, model.Transaction{})
	copy(c.window[pos+1:], c.window[pos:])
	c.window[pos] = cmd.tx

	c.total++
	if cmd.counted {
		c.offset++
	}
	c.addBalance(cmd.tx, 1)
	return nil
}

func (cmd *createCommand) invert(c *Cache, window, balances bool) {
	if window {
		if i := c.indexOf(cmd.tx.ID); i >= 0 {
			c.window = append(c.window[:i], c.window[i+1:]...)
			c.total--
			if cmd.counted {
				c.offset--
			}
		}
	}
	if balances {
		c.addBalance(cmd.tx, -1)
	}
}

// updateCommand replaces a record with a patched copy.
type updateCommand struct {
	amount decimal.Decimal
	patch  model.Patch
	prev   model.Transaction
	next   model.Transaction
	id     model.ID
}

func newUpdateCommand(id model.ID, patch model.Patch, amount decimal.Decimal) *updateCommand {
	return &updateCommand{id: id, patch: patch, amount: amount}
}

func (cmd *updateCommand) TransactionID() model.ID { return cmd.id }

func (cmd *updateCommand) apply(c *Cache) error {
	i := c.indexOf(cmd.id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", cmd.id, common.ErrNotFound)
	}

	cmd.prev = c.window[i]
	cmd.next = cmd.patch.ApplyTo(cmd.prev, cmd.amount)
	c.window[i] = cmd.next

	c.addBalance(cmd.prev, -1)
	c.addBalance(cmd.next, 1)
	return nil
}

func (cmd *updateCommand) invert(c *Cache, window, balances bool) {
	if window {
		if i := c.indexOf(cmd.id); i >= 0 {
			c.window[i] = cmd.prev
		}
	}
	if balances {
		c.addBalance(cmd.next, -1)
		c.addBalance(cmd.prev, 1)
	}
}

// removeCommand drops a record from the window.
type removeCommand struct {
	prev  model.Transaction
	id    model.ID
	index int
}

func newRemoveCommand(id model.ID) *removeCommand {
	return &removeCommand{id: id}
}

func (cmd *removeCommand) TransactionID() model.ID { return cmd.id }

func (cmd *removeCommand) apply(c *Cache) error {
	i := c.indexOf(cmd.id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", cmd.id, common.ErrNotFound)
	}

	cmd.index = i
	cmd.prev = c.window[i]
	c.window = append(c.window[:i], c.window[i+1:]...)
	c.total--
	c.offset--

	c.addBalance(cmd.prev, -1)
	return nil
}

func (cmd *removeCommand) invert(c *Cache, window, balances bool) {
	if window && c.indexOf(cmd.id) < 0 {
		i := cmd.index
		if i > len(c.window) {
			i = len(c.window)
		}
		c.window = append(c.window, model.Transaction{})
		copy(c.window[i+1:], c.window[i:])
		c.window[i] = cmd.prev
		c.total++
		c.offset++
	}
	if balances {
		c.addBalance(cmd.prev, 1)
	}
}
