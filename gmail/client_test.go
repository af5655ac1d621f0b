package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bassamadnan/mailgenie/auth"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return &Client{svc: svc}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"status":"ERROR"}}`, code, msg)
}

func metadataMessage(id string, internalDate int64, from, subject string, unread bool) *gmailapi.Message {
	labels := []string{"INBOX"}
	if unread {
		labels = append(labels, "UNREAD")
	}
	return &gmailapi.Message{
		Id:           id,
		ThreadId:     "thread-" + id,
		Snippet:      "snippet " + id,
		InternalDate: internalDate,
		LabelIds:     labels,
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "Subject", Value: subject},
				{Name: "Date", Value: "Tue, 14 Nov 2023 10:13:20 +0000"},
			},
		},
	}
}

func TestSearchOrdersNewestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "is:unread", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("maxResults"))
		writeJSON(t, w, &gmailapi.ListMessagesResponse{
			Messages: []*gmailapi.Message{{Id: "old"}, {Id: "new"}},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		switch path.Base(r.URL.Path) {
		case "old":
			writeJSON(t, w, metadataMessage("old", 100, "a@example.com", "older", false))
		case "new":
			writeJSON(t, w, metadataMessage("new", 200, "b@example.com", "newer", true))
		default:
			writeAPIError(w, http.StatusNotFound, "unknown id")
		}
	})

	c := newTestClient(t, mux)
	got, err := c.Search(context.Background(), "is:unread", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
	assert.True(t, got[0].Unread)

	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "is:unread newer_than:7d", r.URL.Query().Get("q"))
		writeJSON(t, w, &gmailapi.ListMessagesResponse{})
	})

	c := newTestClient(t, mux)
	got, err := c.Search(context.Background(), "is:unread newer_than:7d", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchClampsMaxResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("maxResults"))
		writeJSON(t, w, &gmailapi.ListMessagesResponse{})
	})

	c := newTestClient(t, mux)
	_, err := c.Search(context.Background(), "all", 9999)
	require.NoError(t, err)
}

func TestSearchUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "invalid credentials")
	})

	c := newTestClient(t, mux)
	_, err := c.Search(context.Background(), "anything", 10)
	require.Error(t, err)

	var authErr *auth.Error
	assert.True(t, errors.As(err, &authErr))
}

func TestFetchFullMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m1", path.Base(r.URL.Path))
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(t, w, &gmailapi.Message{
			Id:       "m1",
			ThreadId: "t1",
			LabelIds: []string{"INBOX", "UNREAD"},
			Payload: &gmailapi.MessagePart{
				MimeType: "text/plain",
				Headers: []*gmailapi.MessagePartHeader{
					{Name: "From", Value: "Alice <alice@example.com>"},
					{Name: "Subject", Value: "Hi"},
					{Name: "Message-ID", Value: "<orig@mail.example>"},
				},
				Body: &gmailapi.MessagePartBody{Data: b64url("the body")},
			},
		})
	})

	c := newTestClient(t, mux)
	d, err := c.Fetch(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, "t1", d.ThreadID)
	assert.Equal(t, "the body", d.BodyText)
	assert.True(t, d.Unread())
}

func TestFetchNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusNotFound, "gone")
	})

	c := newTestClient(t, mux)
	_, err := c.Fetch(context.Background(), "missing")
	require.Error(t, err)

	var nfe *NotFoundError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "missing", nfe.ID)
}

func TestMarkReadIdempotent(t *testing.T) {
	var calls int
	var lastBody gmailapi.ModifyMessageRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lastBody))
		// The server treats removing an absent label as a no-op and
		// answers the same either way.
		writeJSON(t, w, &gmailapi.Message{Id: path.Base(path.Dir(r.URL.Path)), LabelIds: []string{"INBOX"}})
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.MarkRead(context.Background(), "m1"))
	require.NoError(t, c.MarkRead(context.Background(), "m1"))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"UNREAD"}, lastBody.RemoveLabelIds)
	assert.Empty(t, lastBody.AddLabelIds)
}

func TestSendMalformedRecipient(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls++ })

	c := newTestClient(t, mux)
	_, err := c.Send(context.Background(), OutgoingMessage{To: "not an address", Subject: "x", Body: "y"})
	require.Error(t, err)

	var sendErr *SendError
	assert.True(t, errors.As(err, &sendErr))
	assert.Zero(t, calls, "a malformed recipient must be rejected before the network")
}

func decodeSentRaw(t *testing.T, r *http.Request) (gmailapi.Message, string) {
	t.Helper()
	var msg gmailapi.Message
	require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	require.NoError(t, err)
	return msg, string(raw)
}

func TestSendBodySurvivesExactly(t *testing.T) {
	body := "Hi,\n\nthis draft was edited by the user.\n\n-- me\n"
	var sentRaw string

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		_, sentRaw = decodeSentRaw(t, r)
		writeJSON(t, w, &gmailapi.Message{Id: "sent-1"})
	})

	c := newTestClient(t, mux)
	id, err := c.Send(context.Background(), OutgoingMessage{
		To:      "Dest <dest@example.com>",
		Subject: "Status",
		Body:    body,
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", id)

	parts := strings.SplitN(sentRaw, "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, body, parts[1], "body must not be truncated or re-encoded")
	assert.Contains(t, parts[0], "To: dest@example.com")
	assert.Contains(t, parts[0], "Subject: Status")
}

func TestSendQuotaRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	c := newTestClient(t, mux)
	_, err := c.Send(context.Background(), OutgoingMessage{To: "a@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "quota exceeded", sendErr.Reason)
}

func TestReplyThreading(t *testing.T) {
	var sentMsg gmailapi.Message
	var sentRaw string

	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		sentMsg, sentRaw = decodeSentRaw(t, r)
		writeJSON(t, w, &gmailapi.Message{Id: "sent-2"})
	})

	original := &MessageDetail{
		ID:       "m1",
		ThreadID: "t9",
		Headers: Headers{
			From:       "Alice Example <alice@example.com>",
			Subject:    "Project update",
			MessageID:  "<orig@mail.example>",
			References: "<older@mail.example>",
		},
	}

	body := "Thanks, looks good to me.\n"
	c := newTestClient(t, mux)
	id, err := c.Reply(context.Background(), original, body)
	require.NoError(t, err)
	assert.Equal(t, "sent-2", id)

	assert.Equal(t, "t9", sentMsg.ThreadId, "reply must stay on the original thread")

	parts := strings.SplitN(sentRaw, "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	headers := parts[0]
	assert.Contains(t, headers, "To: alice@example.com")
	assert.Contains(t, headers, "Subject: Re: Project update")
	assert.Contains(t, headers, "In-Reply-To: <orig@mail.example>")
	assert.Contains(t, headers, "References: <older@mail.example> <orig@mail.example>")
	assert.Equal(t, body, parts[1])
}

func TestReplyKeepsExistingRePrefix(t *testing.T) {
	var sentRaw string
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		_, sentRaw = decodeSentRaw(t, r)
		writeJSON(t, w, &gmailapi.Message{Id: "sent-3"})
	})

	original := &MessageDetail{
		ThreadID: "t1",
		Headers:  Headers{From: "bob@example.com", Subject: "RE: ping"},
	}

	c := newTestClient(t, mux)
	_, err := c.Reply(context.Background(), original, "pong")
	require.NoError(t, err)

	assert.Contains(t, sentRaw, "Subject: RE: ping")
	assert.NotContains(t, sentRaw, "Re: RE:")
}

func TestReplyUnparseableSender(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.Reply(context.Background(), &MessageDetail{
		Headers: Headers{From: ""},
	}, "body")
	require.Error(t, err)

	var sendErr *SendError
	assert.True(t, errors.As(err, &sendErr))
}
