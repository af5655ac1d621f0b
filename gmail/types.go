package gmail

import "time"

// MessageSummary is one row of a search result. Immutable once fetched.
type MessageSummary struct {
	ID           string
	ThreadID     string
	From         string
	Subject      string
	Snippet      string
	Date         time.Time
	InternalDate int64 // server receive time, used for ordering
	Unread       bool
}

// Headers holds the parsed RFC 5322 headers a reply needs.
type Headers struct {
	From       string
	To         string
	Cc         string
	Subject    string
	Date       string
	MessageID  string
	InReplyTo  string
	References string
}

// MessageDetail is the full content of a single message, produced by an
// explicit Fetch. Read-only.
type MessageDetail struct {
	ID       string
	ThreadID string
	Headers  Headers
	Snippet  string
	LabelIDs []string
	BodyText string
	BodyHTML string
	Date     time.Time
}

// Unread reports whether the message still carries the UNREAD label.
func (d *MessageDetail) Unread() bool {
	for _, l := range d.LabelIDs {
		if l == labelUnread {
			return true
		}
	}
	return false
}

// OutgoingMessage is a fresh message to send. It exists only for the
// duration of the Send call.
type OutgoingMessage struct {
	To      string
	Subject string
	Body    string
}
