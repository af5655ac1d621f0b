package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bassamadnan/mailgenie/gmail"
)

// Every command closes over the sequence number current when the user acted,
// so Update can tell a live answer from a superseded one.

func (m Model) exchangeCmd(code string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		if err := m.creds.Exchange(m.ctx, code); err != nil {
			return errMsg{seq: seq, err: err}
		}
		return loggedInMsg{}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		results, err := m.mail.Search(m.ctx, query, m.maxResults)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return searchResultMsg{seq: seq, results: results}
	}
}

func (m Model) fetchCmd(id string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		detail, err := m.mail.Fetch(m.ctx, id)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return messageLoadedMsg{seq: seq, detail: detail}
	}
}

func (m Model) generateCmd(detail *gmail.MessageDetail) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		text, err := m.gen.GenerateReply(m.ctx, detail)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return draftMsg{seq: seq, sourceID: detail.ID, text: text}
	}
}

func (m Model) replyCmd(original *gmail.MessageDetail, body string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		id, err := m.mail.Reply(m.ctx, original, body)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return sentMsg{seq: seq, id: id, sourceID: original.ID}
	}
}

func (m Model) sendCmd(out gmail.OutgoingMessage) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		id, err := m.mail.Send(m.ctx, out)
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return sentMsg{seq: seq, id: id}
	}
}

func (m Model) markReadCmd(id string) tea.Cmd {
	seq := m.seq
	return func() tea.Msg {
		if err := m.mail.MarkRead(m.ctx, id); err != nil {
			return errMsg{seq: seq, err: err}
		}
		return markedReadMsg{seq: seq, id: id}
	}
}

// statusTickCmd drives the periodic status bar refresh.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return statusTickMsg{t: t}
	})
}
