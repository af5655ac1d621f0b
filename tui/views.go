package tui

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	var body string
	switch m.state {
	case viewLogin:
		body = m.loginView()
	case viewSearch:
		body = m.searchView()
	case viewMessage:
		body = m.messageView()
	case viewCompose:
		body = m.composeView()
	}
	return AppStyle.Render(body + "\n" + m.statusBarView())
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("mailgenie") + "\n\n")
	b.WriteString("Open this URL in a browser, approve access, and paste the code:\n\n")
	b.WriteString(HeaderValStyle.Render(m.creds.AuthURL()) + "\n\n")
	b.WriteString(InputLabelStyle.Render("Code:") + " " + m.codeInput.View() + "\n")
	if m.busy {
		b.WriteString("\n" + m.spin.View() + " " + m.busyLabel + "...\n")
	}
	return b.String()
}

func (m Model) searchView() string {
	var b strings.Builder

	label := InputLabelStyle
	if m.queryInput.Focused() {
		label = FocusedInputLabelStyle
	}
	b.WriteString(label.Render("Search:") + " " + m.queryInput.View() + "\n\n")

	if m.busy {
		b.WriteString(m.spin.View() + " " + m.busyLabel + "...\n")
		return b.String()
	}

	if len(m.results) == 0 {
		b.WriteString(NormalSecondaryTextStyle.Render("No results. Enter a Gmail query above, e.g. is:unread newer_than:7d"))
		return b.String()
	}

	b.WriteString(EmailListTitleStyle.Render(fmt.Sprintf("Messages (%d)", len(m.results))) + "\n")

	width := m.width - 6
	if width < 30 {
		width = 30
	}
	// Keep the selection on screen when the list outgrows the window.
	visible := m.height - 9
	if visible < 2 {
		visible = 2
	}
	rows := visible / 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := start + rows
	if end > len(m.results) {
		end = len(m.results)
	}
	for i := start; i < end; i++ {
		b.WriteString(formatEmailListItem(m.results[i], i == m.selected && m.listFocused, width) + "\n")
	}
	return b.String()
}

func (m Model) messageView() string {
	if m.detail == nil {
		return "No message loaded."
	}
	var b strings.Builder
	b.WriteString(TitleStyle.Render(truncate(m.detail.Headers.Subject, 60)) + "\n\n")
	b.WriteString(m.bodyView.View() + "\n")
	if m.busy {
		b.WriteString("\n" + m.spin.View() + " " + m.busyLabel + "...\n")
	}
	return b.String()
}

func (m Model) composeView() string {
	var b strings.Builder
	title := "New message"
	if m.composeKind == composeReply {
		title = "Reply"
	}
	b.WriteString(TitleStyle.Render(title) + "\n\n")

	label := func(idx int, name string) string {
		if m.composeFocus == idx {
			return FocusedInputLabelStyle.Render(name + ":")
		}
		return InputLabelStyle.Render(name + ":")
	}

	if m.composeKind == composeReply {
		// Recipient and subject come from the original and stay fixed.
		b.WriteString(InputLabelStyle.Render("To:") + " " + m.toInput.Value() + "\n")
		b.WriteString(InputLabelStyle.Render("Subject:") + " " + m.subjectInput.Value() + "\n\n")
	} else {
		b.WriteString(label(0, "To") + " " + m.toInput.View() + "\n")
		b.WriteString(label(1, "Subject") + " " + m.subjectInput.View() + "\n\n")
	}

	b.WriteString(m.bodyInput.View() + "\n")
	if m.busy {
		b.WriteString("\n" + m.spin.View() + " " + m.busyLabel + "...\n")
	}
	return b.String()
}

func (m Model) statusBarView() string {
	style := StatusBarNormalStyle
	switch {
	case m.statusIsError:
		style = StatusBarErrorStyle
	case m.statusIsTemp:
		style = StatusBarSuccessStyle
	}
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	return style.Width(width).Render(truncate(m.statusText, width-2))
}
