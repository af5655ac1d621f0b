package gmail

import (
	"encoding/base64"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
)

const labelUnread = "UNREAD"

// Date layouts seen in the wild beyond what net/mail accepts.
var fallbackDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

func summaryFromMessage(msg *gmailapi.Message) MessageSummary {
	s := MessageSummary{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		Snippet:      msg.Snippet,
		InternalDate: msg.InternalDate,
	}
	for _, l := range msg.LabelIds {
		if l == labelUnread {
			s.Unread = true
			break
		}
	}
	if msg.Payload != nil {
		s.From = headerValue(msg.Payload.Headers, "From")
		s.Subject = headerValue(msg.Payload.Headers, "Subject")
		s.Date = parseDate(headerValue(msg.Payload.Headers, "Date"))
	}
	return s
}

func detailFromMessage(msg *gmailapi.Message) *MessageDetail {
	d := &MessageDetail{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}
	if msg.Payload == nil {
		return d
	}

	h := msg.Payload.Headers
	d.Headers = Headers{
		From:       headerValue(h, "From"),
		To:         headerValue(h, "To"),
		Cc:         headerValue(h, "Cc"),
		Subject:    headerValue(h, "Subject"),
		Date:       headerValue(h, "Date"),
		MessageID:  headerValue(h, "Message-ID"),
		InReplyTo:  headerValue(h, "In-Reply-To"),
		References: headerValue(h, "References"),
	}
	d.Date = parseDate(d.Headers.Date)

	var text, html strings.Builder
	collectBodies(msg.Payload, &text, &html)
	d.BodyText = strings.TrimSpace(text.String())
	d.BodyHTML = strings.TrimSpace(html.String())
	return d
}

// headerValue returns the first header with the given name, matched
// case-insensitively (providers disagree on Message-ID vs Message-Id).
func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// collectBodies walks the MIME tree and accumulates every text/plain and
// text/html part. Multipart containers recurse; other types are skipped.
func collectBodies(part *gmailapi.MessagePart, text, html *strings.Builder) {
	if part == nil {
		return
	}
	switch {
	case part.MimeType == "text/plain":
		text.WriteString(decodePartBody(part.Body))
	case part.MimeType == "text/html":
		html.WriteString(decodePartBody(part.Body))
	}
	for _, p := range part.Parts {
		collectBodies(p, text, html)
	}
}

func decodePartBody(body *gmailapi.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	data, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		// Some senders omit padding.
		data, err = base64.RawURLEncoding.DecodeString(body.Data)
		if err != nil {
			slog.Warn("undecodable message part", "error", err)
			return ""
		}
	}
	return string(data)
}

// parseDate is tolerant: net/mail first, then the layouts providers actually
// emit, with a trailing "(MST)" comment stripped before the retry.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := mail.ParseDate(s); err == nil {
		return t
	}

	trimmed := s
	if open := strings.LastIndex(trimmed, " ("); open != -1 {
		if end := strings.LastIndex(trimmed, ")"); end > open {
			trimmed = strings.TrimSpace(trimmed[:open] + trimmed[end+1:])
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	slog.Warn("unparseable date header", "value", s)
	return time.Time{}
}

// encodeRFC2047 encodes a header value when it contains non-ASCII runes,
// which raw RFC 2822 headers cannot carry.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// buildMIME assembles an RFC 2822 plain-text message. Header values are
// expected to already be encoded where needed.
func buildMIME(headers [][2]string, body string) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0])
		b.WriteString(": ")
		b.WriteString(h[1])
		b.WriteString("\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
