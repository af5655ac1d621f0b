package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bassamadnan/mailgenie/auth"
	"github.com/bassamadnan/mailgenie/gmail"
)

// viewState is the session state machine. Error results never leave the
// current stable state; an auth failure is the one systemic exception and
// drops the session back to viewLogin.
type viewState int

const (
	viewLogin   viewState = iota // logged out, waiting for an auth code
	viewSearch                   // logged in: query box + result list
	viewMessage                  // viewing one fetched message
	viewCompose                  // drafting a reply or a fresh message
)

type composeKind int

const (
	composeReply composeKind = iota
	composeNew
)

// Auth is the slice of the credential store the controller needs.
type Auth interface {
	HasToken() bool
	AuthURL() string
	Exchange(ctx context.Context, code string) error
	Reset() error
}

// Mail is the slice of the Gmail client the controller needs.
type Mail interface {
	Search(ctx context.Context, query string, max int64) ([]gmail.MessageSummary, error)
	Fetch(ctx context.Context, id string) (*gmail.MessageDetail, error)
	Send(ctx context.Context, out gmail.OutgoingMessage) (string, error)
	Reply(ctx context.Context, original *gmail.MessageDetail, body string) (string, error)
	MarkRead(ctx context.Context, id string) error
}

// Replier generates reply drafts.
type Replier interface {
	GenerateReply(ctx context.Context, detail *gmail.MessageDetail) (string, error)
}

// draftReply is an AI-generated draft. It is consumed by exactly one send;
// edited records whether the user changed the generated text.
type draftReply struct {
	sourceID  string
	generated string
	edited    bool
}

type Model struct {
	ctx        context.Context
	creds      Auth
	mail       Mail
	gen        Replier
	maxResults int64

	state viewState
	seq   int // bumped per user action; stale command answers are dropped

	// login
	codeInput textinput.Model

	// search
	queryInput  textinput.Model
	results     []gmail.MessageSummary
	selected    int
	listFocused bool

	// viewing
	detail   *gmail.MessageDetail
	bodyView viewport.Model

	// drafting
	composeKind  composeKind
	returnState  viewState // where discard/send lands
	draft        *draftReply
	toInput      textinput.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model
	composeFocus int // 0=to 1=subject 2=body

	busy      bool
	busyLabel string
	spin      spinner.Model

	width, height int
	statusText    string
	statusIsError bool
	statusIsTemp  bool
	statusExpires time.Time
}

func NewModel(ctx context.Context, creds Auth, mail Mail, gen Replier, maxResults int64, initialQuery string) Model {
	code := textinput.New()
	code.Placeholder = "paste authorization code"
	code.CharLimit = 256
	code.Focus()

	query := textinput.New()
	query.Placeholder = `search, e.g. is:unread newer_than:7d`
	query.CharLimit = 256

	to := textinput.New()
	to.Placeholder = "recipient@example.com"
	to.CharLimit = 256

	subject := textinput.New()
	subject.Placeholder = "subject"
	subject.CharLimit = 256

	body := textarea.New()
	body.Placeholder = "write something, or generate a draft from a message"

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:          ctx,
		creds:        creds,
		mail:         mail,
		gen:          gen,
		maxResults:   maxResults,
		codeInput:    code,
		queryInput:   query,
		toInput:      to,
		subjectInput: subject,
		bodyInput:    body,
		spin:         sp,
		bodyView:     viewport.New(0, 0),
		state:        viewLogin,
		returnState:  viewSearch,
	}
	if creds.HasToken() {
		m.state = viewSearch
		m.queryInput.Focus()
	}
	m.queryInput.SetValue(initialQuery)
	if m.state == viewSearch && initialQuery != "" {
		m.busy = true
		m.busyLabel = "Searching"
	}
	m.setStandardStatus()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, statusTickCmd(time.Second)}
	if m.busy {
		// A query given on the command line runs immediately.
		cmds = append(cmds, m.searchCmd(m.queryInput.Value()), m.spin.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}

	case loggedInMsg:
		m.busy = false
		m.state = viewSearch
		m.codeInput.SetValue("")
		m.queryInput.Focus()
		m.showTemporaryStatus("Logged in", 4*time.Second)

	case searchResultMsg:
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		m.results = msg.results
		m.selected = 0
		m.listFocused = len(m.results) > 0
		if m.listFocused {
			m.queryInput.Blur()
		}
		if len(m.results) == 0 {
			m.updateStatusBar("No messages matched")
		} else {
			m.showTemporaryStatus(fmt.Sprintf("%d message(s)", len(m.results)), 4*time.Second)
		}

	case messageLoadedMsg:
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		m.detail = msg.detail
		m.state = viewMessage
		m.bodyView.SetContent(renderMessageBody(m.detail, m.bodyView.Width))
		m.bodyView.GotoTop()
		m.setStandardStatus()

	case draftMsg:
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		m.draft = &draftReply{sourceID: msg.sourceID, generated: msg.text}
		m.enterCompose(composeReply, viewMessage)
		m.bodyInput.SetValue(msg.text)
		m.showTemporaryStatus("Draft ready, edit and ctrl+s to send", 5*time.Second)

	case sentMsg:
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		wasReply := msg.sourceID != ""
		m.draft = nil // a draft is consumed by exactly one send
		m.resetCompose()
		m.state = m.returnState
		m.showTemporaryStatus(fmt.Sprintf("Sent (id %s)", msg.id), 5*time.Second)
		if wasReply {
			// The original keeps its unread marker otherwise.
			m.seq++
			cmds = append(cmds, m.markReadCmd(msg.sourceID))
		}

	case markedReadMsg:
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		m.applyRead(msg.id)
		m.setStandardStatus()

	case errMsg:
		var authErr *auth.Error
		if errors.As(msg.err, &authErr) {
			// Systemic: even a stale answer means the credentials are gone.
			m.busy = false
			_ = m.creds.Reset()
			m.state = viewLogin
			m.codeInput.Focus()
			m.updateStatusError("Session expired, log in again: " + msg.err.Error())
			break
		}
		if msg.seq != m.seq {
			break
		}
		m.busy = false
		m.updateStatusError(msg.err.Error())

	case statusTickMsg:
		if m.statusIsTemp && msg.t.After(m.statusExpires) {
			m.statusIsTemp = false
		}
		if !m.statusIsTemp && !m.statusIsError {
			m.setStandardStatus()
		}
		cmds = append(cmds, statusTickCmd(time.Second))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case viewLogin:
		return m.handleLoginKey(msg)
	case viewSearch:
		return m.handleSearchKey(msg)
	case viewMessage:
		return m.handleMessageKey(msg)
	case viewCompose:
		return m.handleComposeKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		code := m.codeInput.Value()
		if code == "" {
			return m, nil
		}
		m.begin("Authenticating")
		return m, tea.Batch(m.exchangeCmd(code), m.spin.Tick)
	case "esc":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.queryInput.Focused() {
		switch msg.String() {
		case "enter":
			m.begin("Searching")
			return m, tea.Batch(m.searchCmd(m.queryInput.Value()), m.spin.Tick)
		case "esc", "tab":
			if len(m.results) > 0 {
				m.queryInput.Blur()
				m.listFocused = true
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.queryInput, cmd = m.queryInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/", "tab":
		m.listFocused = false
		m.queryInput.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.results)-1 {
			m.selected++
		}
	case "enter":
		if s, ok := m.selectedSummary(); ok {
			m.begin("Opening " + truncate(s.Subject, 30))
			return m, tea.Batch(m.fetchCmd(s.ID), m.spin.Tick)
		}
	case "r":
		if s, ok := m.selectedSummary(); ok {
			m.seq++
			return m, m.markReadCmd(s.ID)
		}
	case "c":
		m.enterCompose(composeNew, viewSearch)
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleMessageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.state = viewSearch
		m.setStandardStatus()
		return m, nil
	case "g":
		if m.detail != nil && !m.busy {
			m.begin("Drafting reply with Gemini")
			return m, tea.Batch(m.generateCmd(m.detail), m.spin.Tick)
		}
		return m, nil
	case "c":
		m.enterCompose(composeNew, viewMessage)
		return m, textinput.Blink
	case "r":
		if m.detail != nil {
			m.seq++
			return m, m.markReadCmd(m.detail.ID)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.bodyView, cmd = m.bodyView.Update(msg)
	return m, cmd
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Discard. A generated draft dies with the compose view.
		m.draft = nil
		m.resetCompose()
		m.state = m.returnState
		m.setStandardStatus()
		return m, nil
	case "tab", "shift+tab":
		if m.composeKind == composeReply {
			// To/Subject are fixed by the original message.
			return m, nil
		}
		if msg.String() == "tab" {
			m.composeFocus = (m.composeFocus + 1) % 3
		} else {
			m.composeFocus = (m.composeFocus + 2) % 3
		}
		m.focusComposeField()
		return m, textinput.Blink
	case "ctrl+s":
		return m.submitCompose()
	}

	var cmd tea.Cmd
	switch m.composeFocus {
	case 0:
		m.toInput, cmd = m.toInput.Update(msg)
	case 1:
		m.subjectInput, cmd = m.subjectInput.Update(msg)
	default:
		m.bodyInput, cmd = m.bodyInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitCompose() (tea.Model, tea.Cmd) {
	body := m.bodyInput.Value()
	if m.composeKind == composeReply {
		if m.detail == nil {
			m.updateStatusError("no message to reply to")
			return m, nil
		}
		if m.draft != nil {
			m.draft.edited = body != m.draft.generated
		}
		m.begin("Sending reply")
		return m, tea.Batch(m.replyCmd(m.detail, body), m.spin.Tick)
	}

	out := gmail.OutgoingMessage{
		To:      m.toInput.Value(),
		Subject: m.subjectInput.Value(),
		Body:    body,
	}
	m.begin("Sending")
	return m, tea.Batch(m.sendCmd(out), m.spin.Tick)
}

// begin marks the start of a user action: it supersedes anything in flight
// and shows the busy spinner.
func (m *Model) begin(label string) {
	m.seq++
	m.busy = true
	m.busyLabel = label
	m.updateStatusBar(label + "...")
}

func (m *Model) enterCompose(kind composeKind, back viewState) {
	m.composeKind = kind
	m.returnState = back
	m.state = viewCompose
	m.resetCompose()
	if kind == composeReply && m.detail != nil {
		m.toInput.SetValue(m.detail.Headers.From)
		m.subjectInput.SetValue(replySubject(m.detail.Headers.Subject))
		m.composeFocus = 2
	} else {
		m.composeFocus = 0
	}
	m.focusComposeField()
}

func (m *Model) resetCompose() {
	m.toInput.SetValue("")
	m.subjectInput.SetValue("")
	m.bodyInput.SetValue("")
}

func (m *Model) focusComposeField() {
	m.toInput.Blur()
	m.subjectInput.Blur()
	m.bodyInput.Blur()
	switch m.composeFocus {
	case 0:
		m.toInput.Focus()
	case 1:
		m.subjectInput.Focus()
	default:
		m.bodyInput.Focus()
	}
}

func (m *Model) applyRead(id string) {
	for i := range m.results {
		if m.results[i].ID == id {
			m.results[i].Unread = false
		}
	}
	if m.detail != nil && m.detail.ID == id {
		labels := m.detail.LabelIDs[:0:0]
		for _, l := range m.detail.LabelIDs {
			if l != "UNREAD" {
				labels = append(labels, l)
			}
		}
		m.detail.LabelIDs = labels
	}
}

func (m *Model) selectedSummary() (gmail.MessageSummary, bool) {
	if m.selected < 0 || m.selected >= len(m.results) {
		return gmail.MessageSummary{}, false
	}
	return m.results[m.selected], true
}

func (m *Model) layout() {
	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}
	m.queryInput.Width = contentWidth - 10
	m.codeInput.Width = contentWidth - 10
	m.toInput.Width = contentWidth - 12
	m.subjectInput.Width = contentWidth - 12

	bodyHeight := m.height - 12
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.bodyInput.SetWidth(contentWidth)
	m.bodyInput.SetHeight(bodyHeight)
	m.bodyView.Width = contentWidth
	m.bodyView.Height = m.height - 10
	if m.bodyView.Height < 3 {
		m.bodyView.Height = 3
	}
	if m.detail != nil {
		m.bodyView.SetContent(renderMessageBody(m.detail, m.bodyView.Width))
	}
}

func (m *Model) showTemporaryStatus(text string, duration time.Duration) {
	m.statusText = text
	m.statusIsError = false
	m.statusIsTemp = true
	m.statusExpires = time.Now().Add(duration)
}

func (m *Model) updateStatusBar(text string) {
	m.statusText = text
	m.statusIsError = false
	m.statusIsTemp = false
}

func (m *Model) updateStatusError(text string) {
	m.statusText = text
	m.statusIsError = true
	m.statusIsTemp = false
}

func (m *Model) setStandardStatus() {
	if m.statusIsTemp {
		return
	}
	hints := "[Ctrl+C]:Quit"
	switch m.state {
	case viewLogin:
		hints = "[Enter]:Submit code | [Esc]:Quit"
	case viewSearch:
		if m.queryInput.Focused() {
			hints = "[Enter]:Search | [Tab]:Results | [Ctrl+C]:Quit"
		} else {
			hints = "[/]:Query | [jk]:Nav | [Enter]:Open | [r]:Read | [c]:Compose | [q]:Quit"
		}
	case viewMessage:
		hints = "[g]:Gemini reply | [c]:Compose | [r]:Read | [jk]:Scroll | [Esc]:Back"
	case viewCompose:
		hints = "[Ctrl+S]:Send | [Tab]:Next field | [Esc]:Discard"
	}
	m.updateStatusBar(fmt.Sprintf(" %s | %d result(s) | %s",
		time.Now().Format("15:04:05"), len(m.results), hints))
}

func replySubject(subject string) string {
	if hasRePrefix(subject) {
		return subject
	}
	return "Re: " + subject
}
