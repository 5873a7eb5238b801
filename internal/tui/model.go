// Package tui implements the interactive ledger browser.
package tui

import (
	"context"
	"errors"

	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// State represents the current state of the TUI.
type State int

const (
	StateBrowse State = iota
	StateSearch
	StateConfirmDelete
)

// chrome is the number of lines around the transaction rows.
const chrome = 7

// Model holds the main TUI state.
type Model struct {
	ctx           context.Context
	session       *ledger.Session
	lastError     error
	pageErr       error
	alert         *ledger.Alert
	theme         themes.Theme
	pendingDelete model.ID
	filters       filter.State
	accounts      []string
	categories    []model.Category
	visible       []model.Transaction
	keymap        KeyMap
	help          help.Model
	search        textinput.Model
	spinner       spinner.Model
	config        Config
	alertSeq      int
	dateIdx       int
	accountIdx    int
	categoryIdx   int
	cursor        int
	offset        int
	width         int
	height        int
	state         State
	loadingMore   bool
	ready         bool
	quitting      bool
}

// newModel creates a new model over session.
func newModel(ctx context.Context, session *ledger.Session, cfg Config) Model {
	search := textinput.New()
	search.Placeholder = "Search comments..."
	search.CharLimit = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		session: session,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		theme:   cfg.Theme,
		help:    help.New(),
		search:  search,
		spinner: sp,
		state:   StateBrowse,
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSession(), m.scheduleRefresh())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case sessionStartedMsg:
		m.ready = true
		m.lastError = msg.err

	case pageLoadedMsg:
		// a failed page is retried once the cursor moves again
		m.loadingMore = false
		m.pageErr = msg.err

	case reloadedMsg:
		m.lastError = msg.err
		m.pageErr = nil
		m.cursor, m.offset = 0, 0

	case removedMsg:
		// remote failures arrive as alerts
		var mutErr *ledger.MutationError
		if msg.err != nil && !errors.As(msg.err, &mutErr) {
			m.lastError = msg.err
		}

	case alertMsg:
		alert := msg.alert
		m.alert = &alert
		m.alertSeq++
		cmds = append(cmds, m.expireAlert(m.alertSeq))

	case alertExpiredMsg:
		if msg.seq == m.alertSeq {
			m.alert = nil
		}

	case refreshMsg:
		cmds = append(cmds, m.scheduleRefresh())

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	m.refresh()
	cmds = append(cmds, m.maybeLoadMore())
	return m, tea.Batch(cmds...)
}

func (m Model) busy() bool {
	return !m.ready || m.loadingMore
}

// handleKey dispatches a key press according to the current state.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.state {
	case StateSearch:
		return m.handleSearchKey(msg)
	case StateConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	page := m.listHeight()

	if m.isMove(msg) {
		m.pageErr = nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keymap.Up):
		m.cursor--
	case key.Matches(msg, m.keymap.Down):
		m.cursor++
	case key.Matches(msg, m.keymap.PageUp):
		m.cursor -= page
	case key.Matches(msg, m.keymap.PageDown):
		m.cursor += page
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		m.cursor = len(m.visible) - 1
	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keymap.Search):
		m.state = StateSearch
		m.search.SetValue(m.filters.Query)
		return m.search.Focus()
	case key.Matches(msg, m.keymap.CycleDate):
		// custom ranges need explicit dates and are only offered on the command line
		modes := filter.Modes[:len(filter.Modes)-1]
		m.dateIdx = (m.dateIdx + 1) % len(modes)
		m.filters.Dates = filter.DateRange{Mode: modes[m.dateIdx]}
	case key.Matches(msg, m.keymap.CycleAccount):
		m.accountIdx = (m.accountIdx + 1) % (len(m.accounts) + 1)
		m.filters.Accounts = nil
		if m.accountIdx > 0 {
			m.filters.Accounts = []string{m.accounts[m.accountIdx-1]}
		}
	case key.Matches(msg, m.keymap.CycleCategory):
		m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
		m.filters.Categories = nil
		if m.categoryIdx > 0 {
			m.filters.Categories = []model.Category{m.categories[m.categoryIdx-1]}
		}
	case key.Matches(msg, m.keymap.ClearFilters):
		m.filters = filter.State{}
		m.dateIdx, m.accountIdx, m.categoryIdx = 0, 0, 0
	case key.Matches(msg, m.keymap.Delete):
		if tx, ok := m.selected(); ok {
			m.pendingDelete = tx.ID
			m.state = StateConfirmDelete
		}
	case key.Matches(msg, m.keymap.Refresh):
		return m.reload()
	}
	return nil
}

func (m Model) isMove(msg tea.KeyMsg) bool {
	return key.Matches(msg, m.keymap.Up, m.keymap.Down, m.keymap.PageUp, m.keymap.PageDown, m.keymap.Home, m.keymap.End)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.state = StateBrowse
		m.search.Blur()
		return nil
	case tea.KeyEsc:
		m.state = StateBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.filters.Query = ""
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filters.Query = m.search.Value()
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Confirm):
		id := m.pendingDelete
		m.pendingDelete = ""
		m.state = StateBrowse
		m.session.Coordinator.ClearInlineError(id)
		return m.remove(id)
	case key.Matches(msg, m.keymap.Cancel):
		m.pendingDelete = ""
		m.state = StateBrowse
	}
	return nil
}

// refresh re-derives the visible rows and keeps the cursor on screen.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.visible = m.session.Visible(m.filters)
	m.accounts, m.categories = m.session.Options()

	m.cursor = min(m.cursor, len(m.visible)-1)
	m.cursor = max(m.cursor, 0)

	page := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
}

// maybeLoadMore requests the next page once the cursor reaches the last row.
func (m *Model) maybeLoadMore() tea.Cmd {
	if !m.ready || m.loadingMore || m.pageErr != nil {
		return nil
	}
	if m.cursor < len(m.visible)-1 || !m.session.Cache.HasMore() {
		return nil
	}
	m.loadingMore = true
	return tea.Batch(m.loadMore(), m.spinner.Tick)
}

func (m Model) listHeight() int {
	return max(1, m.height-chrome)
}

func (m Model) selected() (model.Transaction, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Transaction{}, false
	}
	return m.visible[m.cursor], true
}
