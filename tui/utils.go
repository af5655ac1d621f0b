package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/mailgenie/gmail"
)

// truncate shortens a string to a max length, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatEmailDate formats the date for display in the email list.
func formatEmailDate(t time.Time) string {
	if t.IsZero() {
		return "???"
	}
	now := time.Now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Local().Format("15:04") // Time only for today
	}
	return t.Local().Format("Jan02")
}

// senderName reduces a From header to its display name, falling back to the
// address when no name is present.
func senderName(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		if name := strings.TrimSpace(from[:idx]); name != "" {
			return strings.Trim(name, `"`)
		}
	}
	from = strings.Trim(strings.TrimSpace(from), "<>")
	if from == "" {
		return "(Unknown Sender)"
	}
	return from
}

// hasRePrefix reports whether subject already carries a reply prefix, in any
// casing.
func hasRePrefix(subject string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:")
}

// formatEmailListItem formats a single summary for the result list. width is
// the space available for the text inside the item.
func formatEmailListItem(email gmail.MessageSummary, isSelected bool, width int) string {
	subjectStyle := NormalSubjectStyle
	secondaryStyle := NormalSecondaryTextStyle
	markerStyle := UnreadMarkerStyle
	itemStyle := EmailListItemStyle
	cursor := "  "
	if isSelected {
		subjectStyle = SelectedSubjectStyle
		secondaryStyle = SelectedSecondaryTextStyle
		markerStyle = SelectedMarkerStyle
		itemStyle = SelectedEmailListItemStyle
		cursor = "> "
	}

	marker := "  "
	if email.Unread {
		marker = "● "
	}

	subject := email.Subject
	if subject == "" {
		subject = "(No Subject)"
	}
	textWidth := width - len(cursor) - len("● ")
	if textWidth < 8 {
		textWidth = 8
	}
	subjectLine := fmt.Sprintf("%-*s", textWidth, truncate(subject, textWidth))

	dateStr := formatEmailDate(email.Date)
	from := senderName(email.From)
	maxFromLen := textWidth - len(dateStr) - 1
	if maxFromLen < 1 {
		from = ""
	} else {
		from = truncate(from, maxFromLen)
	}
	secondary := dateStr
	if from != "" {
		secondary = from + " " + dateStr
	}
	secondaryLine := fmt.Sprintf("%-*s", textWidth, truncate(secondary, textWidth))

	line1 := cursor + markerStyle.Render(marker) + subjectStyle.Render(subjectLine)
	line2 := strings.Repeat(" ", len(cursor)+2) + secondaryStyle.Render(secondaryLine)
	return itemStyle.Render(line1 + "\n" + line2)
}

// renderMessageBody builds the scrollable content for the message view:
// headers, a rule, then the body with CRLF normalized away.
func renderMessageBody(detail *gmail.MessageDetail, width int) string {
	if detail == nil {
		return ""
	}
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	writeHeader := func(key, val string) {
		if val == "" {
			return
		}
		b.WriteString(HeaderKeyStyle.Render(key+":") + " " + HeaderValStyle.Render(val) + "\n")
	}
	writeHeader("From", detail.Headers.From)
	writeHeader("To", detail.Headers.To)
	writeHeader("Cc", detail.Headers.Cc)
	if !detail.Date.IsZero() {
		writeHeader("Date", detail.Date.Local().Format(time.RFC1123))
	}
	writeHeader("Subject", detail.Headers.Subject)
	b.WriteString("\n" + strings.Repeat("─", width) + "\n\n")

	body := detail.BodyText
	if body == "" {
		body = detail.Snippet
	}
	b.WriteString(strings.ReplaceAll(body, "\r\n", "\n"))
	return b.String()
}
