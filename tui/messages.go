package tui

import (
	"time"

	"github.com/bassamadnan/mailgenie/gmail"
)

// Messages produced by commands. Each answer to a user action carries the
// sequence number of the action that issued it; a new action bumps the
// model's sequence, so answers to superseded actions are recognizable and
// dropped instead of racing the current one.

// loggedInMsg reports a successful code exchange.
type loggedInMsg struct{}

// searchResultMsg carries the summaries for one search.
type searchResultMsg struct {
	seq     int
	results []gmail.MessageSummary
}

// messageLoadedMsg carries a fetched message.
type messageLoadedMsg struct {
	seq    int
	detail *gmail.MessageDetail
}

// draftMsg carries a generated reply draft.
type draftMsg struct {
	seq      int
	sourceID string
	text     string
}

// sentMsg reports a delivered message. sourceID is empty for a fresh
// compose and holds the replied-to id otherwise.
type sentMsg struct {
	seq      int
	id       string
	sourceID string
}

// markedReadMsg reports that a message lost its UNREAD label.
type markedReadMsg struct {
	seq int
	id  string
}

// errMsg wraps a failed command.
type errMsg struct {
	seq int
	err error
}

func (e errMsg) Error() string { return e.err.Error() }

// statusTickMsg drives the periodic status bar refresh and expires
// temporary status messages.
type statusTickMsg struct{ t time.Time }
