// Package api implements the remote ledger contract over HTTP and JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/google/uuid"
)

// maxErrorBody bounds how much of an error response is surfaced to the user.
const maxErrorBody = 4 << 10

// Client talks to the remote ledger service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      service.RetryOptions
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetry sets the retry policy used for read requests.
func WithRetry(opts service.RetryOptions) Option {
	return func(c *Client) {
		c.retry = opts
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: server url %q", common.ErrInvalidConfig, baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: common.DefaultRetryOptions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one request. A nil body sends no payload; a nil out discards the response.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &service.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("Ledger request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &service.StatusError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	// Mutations may answer with plain text; only JSON bodies are decoded.
	if method != http.MethodGet && !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &service.TransportError{Method: method, Path: path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// get performs an idempotent read with retries.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return common.WithRetry(ctx, func() error {
		return c.do(ctx, http.MethodGet, path, nil, out)
	}, c.retry)
}

// errorMessage extracts the user-facing text of an error body: the "error"
// field of a JSON object, or the plain text itself.
func errorMessage(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			if payload.Error != "" {
				return payload.Error
			}
			if payload.Message != "" {
				return payload.Message
			}
		}
	}
	return text
}

// ListTransactions fetches one page of the ledger, newest first.
func (c *Client) ListTransactions(ctx context.Context, limit, offset int) (*model.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page model.Page
	if err := c.get(ctx, "/transactions?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type createBody struct {
	Amount   json.Number           `json:"amount"`
	Type     model.TransactionType `json:"type"`
	Category model.Category        `json:"category"`
	Account  string                `json:"account"`
	Date     string                `json:"date"`
	Comment  string                `json:"comment,omitempty"`
}

// CreateTransaction posts a new income or expense record.
func (c *Client) CreateTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	body := createBody{
		Amount:   json.Number(tx.Amount.StringFixed(model.AmountPlaces)),
		Type:     tx.Type,
		Category: tx.Category,
		Account:  tx.Account,
		Date:     tx.Date.Format(time.RFC3339),
		Comment:  tx.Comment,
	}

	var created model.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTransaction patches a record. The server may answer with the updated record.
func (c *Client) UpdateTransaction(ctx context.Context, id model.ID, fields service.UpdateFields) (*model.Transaction, error) {
	var updated model.Transaction
	if err := c.do(ctx, http.MethodPatch, "/transactions/"+url.PathEscape(string(id)), fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction removes one record.
func (c *Client) DeleteTransaction(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(string(id)), nil, nil)
}

// BulkDeleteTransactions removes several records in one call.
func (c *Client) BulkDeleteTransactions(ctx context.Context, ids []model.ID) error {
	body := struct {
		IDs []model.ID `json:"ids"`
	}{IDs: ids}
	return c.do(ctx, http.MethodPost, "/transactions/bulk-delete", body, nil)
}

// Transfer moves money between two accounts.
func (c *Client) Transfer(ctx context.Context, req service.TransferBody) error {
	return c.do(ctx, http.MethodPost, "/transfer", req, nil)
}

// GetBalances fetches the global, per-account and per-category balances.
func (c *Client) GetBalances(ctx context.Context) (*model.Balances, error) {
	b := model.NewBalances()
	if err := c.get(ctx, "/balances", &b); err != nil {
		return nil, err
	}
	if b.Accounts == nil || b.Categories == nil {
		fixed := model.NewBalances()
		fixed.Total = b.Total
		for k, v := range b.Accounts {
			fixed.Accounts[k] = v
		}
		for k, v := range b.Categories {
			fixed.Categories[k] = v
		}
		b = fixed
	}
	return &b, nil
}

// nameList decodes either ["a","b"] or [{"name":"a"},{"name":"b"}].
type nameList []string

func (n *nameList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		*n = names
		return nil
	}

	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &objects); err != nil {
		return errors.New("expected a list of names")
	}
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.Name)
	}
	*n = out
	return nil
}

func (c *Client) names(ctx context.Context, method, path string, body any) ([]string, error) {
	var list nameList
	var err error
	if method == http.MethodGet {
		err = c.get(ctx, path, &list)
	} else {
		err = c.do(ctx, method, path, body, &list)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListAccounts returns account names.
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	return c.names(ctx, http.MethodGet, "/accounts", nil)
}

// CreateAccount adds an account with an optional starting balance.
func (c *Client) CreateAccount(ctx context.Context, name, start string) ([]string, error) {
	body := map[string]string{"name": name}
	if start != "" {
		body["start"] = start
	}
	return c.names(ctx, http.MethodPost, "/accounts", body)
}

// RenameAccount renames an account.
func (c *Client) RenameAccount(ctx context.Context, name, newName string) ([]string, error) {
	return c.names(ctx, http.MethodPatch, "/accounts", map[string]string{"name": name, "newName": newName})
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, name string) ([]string, error) {
	return c.names(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(name), nil)
}

func toCategories(names []string) []model.Category {
	out := make([]model.Category, 0, len(names))
	for _, n := range names {
		out = append(out, model.ParseCategory(n))
	}
	return out
}

func (c *Client) categories(ctx context.Context, method, path string, body any) ([]model.Category, error) {
	names, err := c.names(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return toCategories(names), nil
}

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	return c.categories(ctx, http.MethodGet, "/categories", nil)
}

// CreateCategory adds a category; a category with a parent is created as its child.
func (c *Client) CreateCategory(ctx context.Context, name model.Category) ([]model.Category, error) {
	return c.categories(ctx, http.MethodPost, "/categories", map[string]string{"name": name.String()})
}

// RenameCategory renames a category.
func (c *Client) RenameCategory(ctx context.Context, name, newName model.Category) ([]model.Category, error) {
	body := map[string]string{"name": name.String(), "newName": newName.String()}
	return c.categories(ctx, http.MethodPatch, "/categories", body)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, name model.Category) ([]model.Category, error) {
	return c.categories(ctx, http.MethodDelete, "/categories/"+url.PathEscape(name.String()), nil)
}

// ListRules returns the auto-categorization rules.
func (c *Client) ListRules(ctx context.Context) ([]model.AutoRule, error) {
	var rules []model.AutoRule
	if err := c.get(ctx, "/auto-rules", &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule adds an auto-categorization rule.
func (c *Client) CreateRule(ctx context.Context, rule model.AutoRule) error {
	rule.ID = ""
	return c.do(ctx, http.MethodPost, "/auto-rules", rule, nil)
}

// UpdateRule replaces an auto-categorization rule.
func (c *Client) UpdateRule(ctx context.Context, rule model.AutoRule) error {
	return c.do(ctx, http.MethodPut, "/auto-rules/"+url.PathEscape(string(rule.ID)), rule, nil)
}

// DeleteRule removes an auto-categorization rule.
func (c *Client) DeleteRule(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, "/auto-rules/"+url.PathEscape(string(id)), nil, nil)
}

var (
	_ service.LedgerAPI = (*Client)(nil)
	_ service.RuleAPI   = (*Client)(nil)
)
