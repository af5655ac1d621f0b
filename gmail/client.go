// Package gmail wraps the Gmail REST API with the handful of operations the
// session needs: search, fetch, send, reply, mark read.
package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bassamadnan/mailgenie/auth"
	"github.com/bassamadnan/mailgenie/logging"
)

const (
	user = "me"

	// servicePageSize is the Gmail list page limit; Search never asks for
	// more than one page.
	servicePageSize = 100
)

// Client wraps the Gmail users service. All calls authenticate through the
// session's credential store; a 401 comes back as *auth.Error untouched.
type Client struct {
	svc *gmailapi.Service
}

// NewClient builds a Gmail client on top of the credential store. Extra
// options are appended after the token source, so callers can override the
// endpoint.
func NewClient(ctx context.Context, creds *auth.Store, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithTokenSource(creds.TokenSource(ctx))}, opts...)
	svc, err := gmailapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Search runs a Gmail query (the syntax passes through unmodified, e.g.
// "is:unread newer_than:7d") and returns up to max summaries ordered newest
// first. Zero matches is an empty slice, not an error. A summary that can no
// longer be read is skipped, mirroring how the search view treats it.
func (c *Client) Search(ctx context.Context, query string, max int64) ([]MessageSummary, error) {
	if max < 1 {
		max = 1
	}
	if max > servicePageSize {
		max = servicePageSize
	}

	res, err := c.svc.Users.Messages.List(user).Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err, "")
	}
	if len(res.Messages) == 0 {
		return []MessageSummary{}, nil
	}

	summaries := make([]MessageSummary, 0, len(res.Messages))
	for _, m := range res.Messages {
		msg, err := c.svc.Users.Messages.Get(user, m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			if wrapped := wrapAPIError(err, m.Id); isAuthError(wrapped) {
				return nil, wrapped
			}
			slog.Warn("skipping unreadable message", logging.MessageID(m.Id), logging.Err(err))
			continue
		}
		summaries = append(summaries, summaryFromMessage(msg))
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].InternalDate > summaries[j].InternalDate
	})
	slog.Debug("search done", logging.Operation("search"), slog.String(logging.KeyQuery, query), slog.Int("results", len(summaries)))
	return summaries, nil
}

// Fetch retrieves the full message for an id returned by Search.
func (c *Client) Fetch(ctx context.Context, id string) (*MessageDetail, error) {
	msg, err := c.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err, id)
	}
	return detailFromMessage(msg), nil
}

// MarkRead removes the UNREAD label. Removing an absent label is a server-
// side no-op, which makes the call idempotent.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	_, err := c.svc.Users.Messages.Modify(user, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{labelUnread},
	}).Context(ctx).Do()
	if err != nil {
		return wrapAPIError(err, id)
	}
	return nil
}

// Send delivers a fresh message. The body goes out exactly as given, no
// re-encoding beyond the base64url transport wrapper.
func (c *Client) Send(ctx context.Context, out OutgoingMessage) (string, error) {
	addr, err := mail.ParseAddress(out.To)
	if err != nil {
		return "", &SendError{Reason: fmt.Sprintf("malformed recipient %q", out.To), Err: err}
	}

	raw := buildMIME([][2]string{
		{"To", addr.Address},
		{"Subject", encodeRFC2047(out.Subject)},
	}, out.Body)

	return c.send(ctx, &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	})
}

// Reply sends body as a reply to the original message: To is the original
// sender, the subject gains a "Re: " prefix, and In-Reply-To/References plus
// the thread id keep the conversation threaded.
func (c *Client) Reply(ctx context.Context, original *MessageDetail, body string) (string, error) {
	addr, err := mail.ParseAddress(original.Headers.From)
	if err != nil {
		return "", &SendError{Reason: "cannot parse original sender", Err: err}
	}

	subject := original.Headers.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	headers := [][2]string{
		{"To", addr.Address},
		{"Subject", encodeRFC2047(subject)},
	}
	if mid := original.Headers.MessageID; mid != "" {
		headers = append(headers, [2]string{"In-Reply-To", mid})
		refs := mid
		if original.Headers.References != "" {
			refs = original.Headers.References + " " + mid
		}
		headers = append(headers, [2]string{"References", refs})
	}

	raw := buildMIME(headers, body)
	return c.send(ctx, &gmailapi.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: original.ThreadID,
	})
}

func (c *Client) send(ctx context.Context, msg *gmailapi.Message) (string, error) {
	sent, err := c.svc.Users.Messages.Send(user, msg).Context(ctx).Do()
	if err != nil {
		return "", wrapSendError(err)
	}
	slog.Info("message sent", logging.Operation("send"), logging.MessageID(sent.Id))
	return sent.Id, nil
}

func isAuthError(err error) bool {
	var authErr *auth.Error
	return errors.As(err, &authErr)
}
