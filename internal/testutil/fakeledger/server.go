// Package fakeledger is an in-memory implementation of the remote ledger
// service for tests. It serves the REST contract and the push channel and can
// inject failures or hold requests open per route.
package fakeledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// Route names a handler by method and gin path pattern, e.g.
// "PATCH /transactions/:id".
type Route string

// Routes served by the fake.
const (
	ListTransactions  Route = "GET /transactions"
	CreateTransaction Route = "POST /transactions"
	UpdateTransaction Route = "PATCH /transactions/:id"
	DeleteTransaction Route = "DELETE /transactions/:id"
	BulkDelete        Route = "POST /transactions/bulk-delete"
	Transfer          Route = "POST /transfer"
	Balances          Route = "GET /balances"
	ListAccounts      Route = "GET /accounts"
	CreateAccount     Route = "POST /accounts"
	RenameAccount     Route = "PATCH /accounts"
	DeleteAccount     Route = "DELETE /accounts/:name"
	ListCategories    Route = "GET /categories"
	CreateCategory    Route = "POST /categories"
	RenameCategory    Route = "PATCH /categories"
	DeleteCategory    Route = "DELETE /categories/:name"
	ListRules         Route = "GET /auto-rules"
	CreateRule        Route = "POST /auto-rules"
	UpdateRule        Route = "PUT /auto-rules/:id"
	DeleteRule        Route = "DELETE /auto-rules/:id"
	Push              Route = "GET /ws"
)

type failure struct {
	body   string
	status int
	times  int
}

// Server is a running fake ledger service.
type Server struct {
	starts      map[string]decimal.Decimal
	failures    map[Route]*failure
	holds       map[Route]chan struct{}
	calls       map[Route]int
	subscribers map[*websocket.Conn]struct{}
	srv         *httptest.Server
	upgrader    websocket.Upgrader
	txs         []model.Transaction
	accounts    []string
	categories  []model.Category
	rules       []model.AutoRule
	mu          sync.Mutex
	pushMu      sync.Mutex
	nextID      int
	nextRuleID  int
}

// New starts a fake service. Close it when done.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		starts:      make(map[string]decimal.Decimal),
		failures:    make(map[Route]*failure),
		holds:       make(map[Route]chan struct{}),
		calls:       make(map[Route]int),
		subscribers: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.intercept)

	r.GET("/transactions", s.listTransactions)
	r.POST("/transactions", s.createTransaction)
	r.POST("/transactions/bulk-delete", s.bulkDelete)
	r.PATCH("/transactions/:id", s.updateTransaction)
	r.DELETE("/transactions/:id", s.deleteTransaction)
	r.POST("/transfer", s.transfer)
	r.GET("/balances", s.balances)

	r.GET("/accounts", s.listAccounts)
	r.POST("/accounts", s.createAccount)
	r.PATCH("/accounts", s.renameAccount)
	r.DELETE("/accounts/:name", s.deleteAccount)

	r.GET("/categories", s.listCategories)
	r.POST("/categories", s.createCategory)
	r.PATCH("/categories", s.renameCategory)
	r.DELETE("/categories/:name", s.deleteCategory)

	r.GET("/auto-rules", s.listRules)
	r.POST("/auto-rules", s.createRule)
	r.PUT("/auto-rules/:id", s.updateRule)
	r.DELETE("/auto-rules/:id", s.deleteRule)

	r.GET("/ws", s.subscribe)
	return r
}

// URL is the base URL of the REST API.
func (s *Server) URL() string {
	return s.srv.URL
}

// PushURL is the WebSocket endpoint.
func (s *Server) PushURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

// Close shuts the server down and drops push subscribers.
func (s *Server) Close() {
	s.pushMu.Lock()
	for conn := range s.subscribers {
		_ = conn.Close()
	}
	s.subscribers = make(map[*websocket.Conn]struct{})
	s.pushMu.Unlock()

	s.mu.Lock()
	for route, ch := range s.holds {
		close(ch)
		delete(s.holds, route)
	}
	s.mu.Unlock()

	s.srv.Close()
}

// Seed replaces the stored transactions, accounts and categories. Accounts
// and categories referenced by txs are added automatically.
func (s *Server) Seed(txs ...model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = nil
	for _, tx := range txs {
		if tx.ID == "" {
			s.nextID++
			tx.ID = model.ID(strconv.Itoa(s.nextID))
		} else if n, err := strconv.Atoi(string(tx.ID)); err == nil && n > s.nextID {
			s.nextID = n
		}
		tx = tx.Normalize()
		s.insert(tx)
		s.addAccount(tx.Account)
		s.addAccount(tx.ToAccount)
		if tx.Type != model.TypeTransfer && !tx.Category.IsZero() {
			s.addCategory(tx.Category)
		}
	}
}

// Transactions returns the stored transactions, newest first.
func (s *Server) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.txs...)
}

// Fail makes route answer with status and body until cleared. A body
// starting with "{" is sent as JSON, anything else as plain text.
func (s *Server) Fail(route Route, status int, body string) {
	s.FailTimes(route, status, body, -1)
}

// FailTimes makes route fail for the next n calls only.
func (s *Server) FailTimes(route Route, status int, body string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, body: body, times: n}
}

// Clear removes an injected failure.
func (s *Server) Clear(route Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks requests to route until the returned release is called.
func (s *Server) Hold(route Route) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[route] == ch {
				delete(s.holds, route)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

// Calls reports how many requests route has received.
func (s *Server) Calls(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Subscribers reports the number of open push connections.
func (s *Server) Subscribers() int {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	return len(s.subscribers)
}

// Broadcast sends an event to every push subscriber. data is JSON encoded;
// a nil data sends no payload.
func (s *Server) Broadcast(event string, data any) error {
	ev := service.Event{Name: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		ev.Data = raw
	}
	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.BroadcastRaw(frame)
}

// BroadcastRaw sends frame verbatim to every push subscriber.
func (s *Server) BroadcastRaw(frame []byte) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	for conn := range s.subscribers {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			_ = conn.Close()
			delete(s.subscribers, conn)
		}
	}
	return nil
}

// DropSubscribers closes every push connection, as a server restart would.
func (s *Server) DropSubscribers() {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	for conn := range s.subscribers {
		_ = conn.Close()
		delete(s.subscribers, conn)
	}
}

// intercept counts calls and applies injected holds and failures.
func (s *Server) intercept(c *gin.Context) {
	route := Route(c.Request.Method + " " + c.FullPath())

	s.mu.Lock()
	s.calls[route]++
	hold := s.holds[route]
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	s.mu.Lock()
	f := s.failures[route]
	if f != nil && f.times > 0 {
		f.times--
		if f.times == 0 {
			delete(s.failures, route)
		}
	}
	s.mu.Unlock()

	if f != nil {
		if strings.HasPrefix(f.body, "{") {
			c.Data(f.status, "application/json; charset=utf-8", []byte(f.body))
		} else {
			c.String(f.status, f.body)
		}
		c.Abort()
		return
	}
	c.Next()
}

// notify pushes the standard change events after a successful mutation.
func (s *Server) notify(events ...string) {
	for _, ev := range events {
		switch ev {
		case service.EventBalance:
			_ = s.Broadcast(ev, s.computeBalances().Total)
		case service.EventAccounts:
			_ = s.Broadcast(ev, s.computeBalances().Accounts)
		case service.EventCategories:
			_ = s.Broadcast(ev, s.computeBalances().Categories)
		default:
			_ = s.Broadcast(ev, nil)
		}
	}
}

func (s *Server) subscribe(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s.pushMu.Lock()
	s.subscribers[conn] = struct{}{}
	s.pushMu.Unlock()

	// drain until the client goes away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.pushMu.Lock()
				delete(s.subscribers, conn)
				s.pushMu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// insert keeps txs newest first. Callers hold s.mu.
func (s *Server) insert(tx model.Transaction) {
	i := sort.Search(len(s.txs), func(i int) bool {
		return s.txs[i].Date.Before(tx.Date)
	})
	s.txs = append(s.txs, model.Transaction{})
	copy(s.txs[i+1:], s.txs[i:])
	s.txs[i] = tx
}

func (s *Server) indexOf(id model.ID) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) computeBalances() model.Balances {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := model.ComputeBalances(s.txs)
	for account, start := range s.starts {
		b.Accounts[account] = b.Accounts[account].Add(start)
		b.Total = b.Total.Add(start)
	}
	return b
}

func (s *Server) listTransactions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		fail(c, http.StatusBadRequest, "invalid offset")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	end := offset + limit
	if end > len(s.txs) {
		end = len(s.txs)
	}
	if offset > end {
		offset = end
	}
	c.JSON(http.StatusOK, model.Page{
		Transactions: append([]model.Transaction{}, s.txs[offset:end]...),
		Total:        len(s.txs),
		HasMore:      end < len(s.txs),
	})
}

type createRequest struct {
	Amount   decimal.Decimal       `json:"amount"`
	Type     model.TransactionType `json:"type"`
	Category model.Category        `json:"category"`
	Account  string                `json:"account"`
	Date     string                `json:"date"`
	Comment  string                `json:"comment"`
}

func (s *Server) createTransaction(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		fail(c, http.StatusBadRequest, "amount must be positive")
		return
	}
	if req.Type != model.TypeIncome && req.Type != model.TypeExpense {
		fail(c, http.StatusBadRequest, "type must be income or expense")
		return
	}
	if req.Account == "" {
		fail(c, http.StatusBadRequest, "account is required")
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if date.IsZero() {
		date = time.Now()
	}

	s.mu.Lock()
	s.nextID++
	tx := model.Transaction{
		ID:       model.ID(strconv.Itoa(s.nextID)),
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
		Account:  req.Account,
		Date:     date,
		Comment:  req.Comment,
	}
	s.insert(tx)
	s.addAccount(tx.Account)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, tx)
	s.notify(service.EventTransactions, service.EventBalance)
}

func (s *Server) updateTransaction(c *gin.Context) {
	var fields service.UpdateFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	i := s.indexOf(model.ID(c.Param("id")))
	if i < 0 {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "transaction not found")
		return
	}

	tx := s.txs[i]
	if fields.Amount != nil {
		amount, err := decimal.NewFromString(fields.Amount.String())
		if err != nil || !amount.IsPositive() {
			s.mu.Unlock()
			fail(c, http.StatusBadRequest, "amount must be positive")
			return
		}
		tx.Amount = amount
	}
	if fields.Type != "" {
		tx.Type = fields.Type
	}
	if fields.Category != nil {
		tx.Category = *fields.Category
	}
	if fields.Account != nil {
		tx.Account = *fields.Account
		tx.FromAccount = *fields.Account
	}
	if fields.Comment != nil {
		tx.Comment = *fields.Comment
	}
	if fields.Date != nil {
		date, err := model.ParseDate(*fields.Date)
		if err != nil {
			s.mu.Unlock()
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		tx.Date = date
	}
	tx = tx.Normalize()
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	s.insert(tx)
	s.mu.Unlock()

	c.JSON(http.StatusOK, tx)
	s.notify(service.EventTransactions, service.EventBalance)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	s.mu.Lock()
	i := s.indexOf(model.ID(c.Param("id")))
	if i < 0 {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "transaction not found")
		return
	}
	s.txs = append(s.txs[:i], s.txs[i+1:]...)
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
	s.notify(service.EventTransactions, service.EventBalance)
}

func (s *Server) bulkDelete(c *gin.Context) {
	var req struct {
		IDs []model.ID `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		fail(c, http.StatusBadRequest, "ids are required")
		return
	}

	drop := make(map[model.ID]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	kept := make([]model.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if _, ok := drop[tx.ID]; !ok {
			kept = append(kept, tx)
		}
	}
	removed := len(s.txs) - len(kept)
	s.txs = kept
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"deleted": removed})
	s.notify(service.EventTransactions, service.EventBalance)
}

func (s *Server) transfer(c *gin.Context) {
	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		From    string          `json:"from"`
		To      string          `json:"to"`
		Date    string          `json:"date"`
		Comment string          `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.From == "" || req.To == "" || req.From == req.To {
		fail(c, http.StatusBadRequest, "from and to must be different accounts")
		return
	}
	if !req.Amount.IsPositive() {
		fail(c, http.StatusBadRequest, "amount must be positive")
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.nextID++
	tx := model.Transaction{
		ID:          model.ID(strconv.Itoa(s.nextID)),
		Type:        model.TypeTransfer,
		Amount:      req.Amount,
		FromAccount: req.From,
		ToAccount:   req.To,
		Date:        date,
		Comment:     req.Comment,
	}.Normalize()
	s.insert(tx)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, tx)
	s.notify(service.EventTransactions, service.EventBalance, service.EventAccounts)
}

func (s *Server) balances(c *gin.Context) {
	c.JSON(http.StatusOK, s.computeBalances())
}

func (s *Server) addAccount(name string) {
	if name == "" {
		return
	}
	for _, a := range s.accounts {
		if a == name {
			return
		}
	}
	s.accounts = append(s.accounts, name)
}

func (s *Server) accountList() []string {
	return append([]string{}, s.accounts...)
}

func (s *Server) listAccounts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.accountList())
}

func (s *Server) createAccount(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Start string `json:"start"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	var start decimal.Decimal
	if req.Start != "" {
		var err error
		if start, err = decimal.NewFromString(req.Start); err != nil {
			fail(c, http.StatusBadRequest, "invalid start balance")
			return
		}
	}

	s.mu.Lock()
	for _, a := range s.accounts {
		if a == req.Name {
			s.mu.Unlock()
			fail(c, http.StatusConflict, fmt.Sprintf("account %q already exists", req.Name))
			return
		}
	}
	s.accounts = append(s.accounts, req.Name)
	if !start.IsZero() {
		s.starts[req.Name] = start
	}
	list := s.accountList()
	s.mu.Unlock()

	c.JSON(http.StatusCreated, list)
	s.notify(service.EventAccounts, service.EventBalance)
}

func (s *Server) renameAccount(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		NewName string `json:"newName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.NewName == "" {
		fail(c, http.StatusBadRequest, "name and newName are required")
		return
	}

	s.mu.Lock()
	found := false
	for i, a := range s.accounts {
		if a == req.Name {
			s.accounts[i] = req.NewName
			found = true
		}
	}
	if !found {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "account not found")
		return
	}
	for i := range s.txs {
		tx := &s.txs[i]
		if tx.Account == req.Name {
			tx.Account = req.NewName
		}
		if tx.FromAccount == req.Name {
			tx.FromAccount = req.NewName
		}
		if tx.ToAccount == req.Name {
			tx.ToAccount = req.NewName
		}
	}
	if start, ok := s.starts[req.Name]; ok {
		delete(s.starts, req.Name)
		s.starts[req.NewName] = start
	}
	list := s.accountList()
	s.mu.Unlock()

	c.JSON(http.StatusOK, list)
	s.notify(service.EventTransactions, service.EventAccounts)
}

func (s *Server) deleteAccount(c *gin.Context) {
	name := c.Param("name")

	s.mu.Lock()
	kept := make([]string, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a != name {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(s.accounts) {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "account not found")
		return
	}
	s.accounts = kept
	delete(s.starts, name)
	list := s.accountList()
	s.mu.Unlock()

	c.JSON(http.StatusOK, list)
	s.notify(service.EventAccounts, service.EventBalance)
}

func (s *Server) addCategory(cat model.Category) {
	if cat.IsChild() {
		s.addCategory(model.Category{Name: cat.Parent})
	}
	for _, existing := range s.categories {
		if existing == cat {
			return
		}
	}
	s.categories = append(s.categories, cat)
}

func (s *Server) categoryList() []string {
	out := make([]string, 0, len(s.categories))
	for _, cat := range s.categories {
		out = append(out, cat.String())
	}
	return out
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.categoryList())
}

func (s *Server) createCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	s.addCategory(model.ParseCategory(req.Name))
	list := s.categoryList()
	s.mu.Unlock()

	c.JSON(http.StatusCreated, list)
}

func (s *Server) renameCategory(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		NewName string `json:"newName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.NewName == "" {
		fail(c, http.StatusBadRequest, "name and newName are required")
		return
	}
	from := model.ParseCategory(req.Name)
	to := model.ParseCategory(req.NewName)

	s.mu.Lock()
	found := false
	for i := range s.categories {
		if s.categories[i] == from {
			s.categories[i] = to
			found = true
		}
	}
	if !found {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "category not found")
		return
	}
	for i := range s.txs {
		if s.txs[i].Category == from {
			s.txs[i].Category = to
		}
	}
	list := s.categoryList()
	s.mu.Unlock()

	c.JSON(http.StatusOK, list)
	s.notify(service.EventTransactions, service.EventCategories)
}

func (s *Server) deleteCategory(c *gin.Context) {
	target := model.ParseCategory(c.Param("name"))

	s.mu.Lock()
	kept := make([]model.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		if cat != target && !(target.Parent == "" && cat.Parent == target.Name) {
			kept = append(kept, cat)
		}
	}
	if len(kept) == len(s.categories) {
		s.mu.Unlock()
		fail(c, http.StatusNotFound, "category not found")
		return
	}
	s.categories = kept
	list := s.categoryList()
	s.mu.Unlock()

	c.JSON(http.StatusOK, list)
}

func (s *Server) listRules(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]model.AutoRule{}, s.rules...))
}

func (s *Server) createRule(c *gin.Context) {
	var rule model.AutoRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := rule.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.nextRuleID++
	rule.ID = model.ID(strconv.Itoa(s.nextRuleID))
	s.rules = append(s.rules, rule)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, rule)
}

func (s *Server) updateRule(c *gin.Context) {
	var rule model.AutoRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := rule.Validate(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = model.ID(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == rule.ID {
			s.rules[i] = rule
			c.JSON(http.StatusOK, rule)
			return
		}
	}
	fail(c, http.StatusNotFound, "rule not found")
}

func (s *Server) deleteRule(c *gin.Context) {
	id := model.ID(c.Param("id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	fail(c, http.StatusNotFound, "rule not found")
}
