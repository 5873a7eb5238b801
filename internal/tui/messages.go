package tui

import "github.com/Veraticus/spice-ledger/internal/ledger"

// Data loading messages.
type sessionStartedMsg struct {
	err error
}

type pageLoadedMsg struct {
	err    error
	loaded bool
}

type reloadedMsg struct {
	err error
}

// Mutation messages.
type removedMsg struct {
	err error
}

// Push and alert messages.
type alertMsg struct {
	alert ledger.Alert
}

type alertExpiredMsg struct {
	seq int
}

// refreshMsg re-derives the visible rows from the cache, which the push
// listener updates from outside the program loop.
type refreshMsg struct{}
