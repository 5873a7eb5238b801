package ledger

import (
	"context"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// The account and category operations below are not optimistic: the server
// answers with the full list, which then replaces the cached one.

// CreateAccount adds an account with an optional opening balance.
func (c *Coordinator) CreateAccount(ctx context.Context, name, start string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", ErrMissingField)
	}
	if start = strings.TrimSpace(start); start != "" {
		amount, err := model.ParseAmount(start)
		if err != nil {
			return invalid("start", err)
		}
		start = amount.StringFixed(model.AmountPlaces)
	}

	accounts, err := c.api.CreateAccount(ctx, name, start)
	if err != nil {
		return c.fail(nil, "create account", "", err, false)
	}
	return c.afterAccounts(ctx, accounts)
}

// RenameAccount renames an account on the server and in every loaded record.
func (c *Coordinator) RenameAccount(ctx context.Context, name, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return invalid("new name", ErrMissingField)
	}
	if newName == name {
		return nil
	}

	accounts, err := c.api.RenameAccount(ctx, name, newName)
	if err != nil {
		return c.fail(nil, "rename account", "", err, false)
	}
	return c.afterAccounts(ctx, accounts)
}

// DeleteAccount removes an account.
func (c *Coordinator) DeleteAccount(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", ErrMissingField)
	}

	accounts, err := c.api.DeleteAccount(ctx, name)
	if err != nil {
		return c.fail(nil, "delete account", "", err, false)
	}
	return c.afterAccounts(ctx, accounts)
}

// afterAccounts stores the returned list and refetches data derived from
// account names, since the server may have rewritten records.
func (c *Coordinator) afterAccounts(ctx context.Context, accounts []string) error {
	if accounts != nil {
		c.cache.SetAccounts(accounts)
	} else if err := c.refreshAccounts(ctx); err != nil {
		return err
	}
	return c.refreshDerived(ctx)
}

func (c *Coordinator) refreshAccounts(ctx context.Context) error {
	accounts, err := c.api.ListAccounts(ctx)
	if err != nil {
		return err
	}
	c.cache.SetAccounts(accounts)
	return nil
}

// CreateCategory adds a category, optionally nested under a parent.
func (c *Coordinator) CreateCategory(ctx context.Context, cat model.Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return invalid("name", ErrMissingField)
	}
	if cat == model.TransferCategory {
		return invalid("name", ErrReservedCategory)
	}

	categories, err := c.api.CreateCategory(ctx, cat)
	if err != nil {
		return c.fail(nil, "create category", "", err, false)
	}
	return c.afterCategories(ctx, categories)
}

// RenameCategory renames a category on the server.
func (c *Coordinator) RenameCategory(ctx context.Context, cat, renamed model.Category) error {
	if strings.TrimSpace(renamed.Name) == "" {
		return invalid("new name", ErrMissingField)
	}
	if renamed == model.TransferCategory {
		return invalid("new name", ErrReservedCategory)
	}
	if renamed == cat {
		return nil
	}

	categories, err := c.api.RenameCategory(ctx, cat, renamed)
	if err != nil {
		return c.fail(nil, "rename category", "", err, false)
	}
	return c.afterCategories(ctx, categories)
}

// DeleteCategory removes a category.
func (c *Coordinator) DeleteCategory(ctx context.Context, cat model.Category) error {
	if cat.IsZero() {
		return invalid("name", ErrMissingField)
	}

	categories, err := c.api.DeleteCategory(ctx, cat)
	if err != nil {
		return c.fail(nil, "delete category", "", err, false)
	}
	return c.afterCategories(ctx, categories)
}

func (c *Coordinator) afterCategories(ctx context.Context, categories []model.Category) error {
	if categories != nil {
		c.cache.SetCategories(categories)
	} else {
		list, err := c.api.ListCategories(ctx)
		if err != nil {
			return err
		}
		c.cache.SetCategories(list)
	}
	return c.refreshDerived(ctx)
}

func (c *Coordinator) refreshDerived(ctx context.Context) error {
	if err := c.cache.Reload(ctx, c.api, c.pageSize); err != nil {
		return err
	}
	return c.cache.RefreshBalances(ctx, c.api)
}

// Rules manages auto-categorization rules. Rules live on the server only and
// are never cached.
type Rules struct {
	api   service.RuleAPI
	alert func(Alert)
}

// NewRules wraps a rule service.
func NewRules(api service.RuleAPI, alert func(Alert)) *Rules {
	if alert == nil {
		alert = func(Alert) {}
	}
	return &Rules{api: api, alert: alert}
}

// List returns every rule.
func (r *Rules) List(ctx context.Context) ([]model.AutoRule, error) {
	rules, err := r.api.ListRules(ctx)
	if err != nil {
		return nil, r.fail("list rules", err)
	}
	return rules, nil
}

// Save creates rule, or updates it when it already has an id.
func (r *Rules) Save(ctx context.Context, rule model.AutoRule) error {
	rule.Name = strings.TrimSpace(rule.Name)
	rule.CommentPattern = strings.TrimSpace(rule.CommentPattern)
	rule.Category = strings.TrimSpace(rule.Category)
	if err := rule.Validate(); err != nil {
		return invalid("rule", err)
	}

	var err error
	op := "create rule"
	if rule.ID == "" {
		err = r.api.CreateRule(ctx, rule)
	} else {
		op = "update rule"
		err = r.api.UpdateRule(ctx, rule)
	}
	if err != nil {
		return r.fail(op, err)
	}
	return nil
}

// Delete removes the rule with the given id.
func (r *Rules) Delete(ctx context.Context, id model.ID) error {
	if id == "" {
		return invalid("id", ErrMissingField)
	}
	if err := r.api.DeleteRule(ctx, id); err != nil {
		return r.fail("delete rule", err)
	}
	return nil
}

func (r *Rules) fail(op string, err error) error {
	kind, msg := classify(err)
	r.alert(Alert{Op: op, Message: msg, Kind: kind})
	return &MutationError{Op: op, Kind: kind, Message: msg, Err: err}
}
