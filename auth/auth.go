// Package auth holds the OAuth2 client config and tokens for the current
// session. It is the only writer of credential state; every API call reads
// through it.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

var errNotAuthenticated = errors.New("not authenticated")

// Error marks a credential failure: invalid client config, denied consent,
// or a revoked/expired refresh token. The session treats it as systemic and
// forces re-authentication; no other error class does that.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store produces a valid bearer token on demand. Tokens are cached in a file
// between sessions (the consent flow is painful enough to do once); all other
// state lives for a single run.
type Store struct {
	config    *oauth2.Config
	tokenPath string

	mu        sync.Mutex
	source    oauth2.TokenSource
	lastSaved string // access token already persisted, avoids rewriting per call
}

// Load parses the client-secret JSON and, when a cached token exists, arms
// the store with it so the session starts logged in.
func Load(credentialsPath, tokenPath string) (*Store, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, &Error{Op: "read client secret", Err: err}
	}
	cfg, err := google.ConfigFromJSON(b, gmailapi.GmailModifyScope, gmailapi.GmailSendScope)
	if err != nil {
		return nil, &Error{Op: "parse client secret", Err: err}
	}

	s := &Store{config: cfg, tokenPath: tokenPath}
	if tok, err := readToken(tokenPath); err == nil {
		s.arm(tok)
	}
	return s, nil
}

// HasToken reports whether the session currently holds credentials.
func (s *Store) HasToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// AuthURL returns the consent URL the user must visit to obtain an
// authorization code.
func (s *Store) AuthURL() string {
	return s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Exchange swaps an authorization code for tokens, persists them, and arms
// the store. A rejected code (or denied consent) surfaces as *Error.
func (s *Store) Exchange(ctx context.Context, code string) error {
	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		return &Error{Op: "exchange code", Err: err}
	}
	if err := writeToken(s.tokenPath, tok); err != nil {
		return &Error{Op: "save token", Err: err}
	}
	s.arm(tok)
	return nil
}

// Token returns a valid bearer token. An expired token triggers exactly one
// refresh through the underlying oauth2 source; a refresh failure is not
// retried and comes back as *Error, forcing the caller to re-authenticate.
func (s *Store) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	src := s.source
	s.mu.Unlock()

	if src == nil {
		return nil, &Error{Op: "token", Err: errNotAuthenticated}
	}
	tok, err := src.Token()
	if err != nil {
		return nil, &Error{Op: "refresh token", Err: err}
	}
	s.persistRotation(tok)
	return tok, nil
}

// TokenSource adapts the store for the Google API client options. Every call
// funnels through Token so refresh failures keep their *Error type.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return storeSource{ctx: ctx, store: s}
}

// Reset discards the session credentials and removes the token cache.
// Resetting an already logged-out store is a no-op.
func (s *Store) Reset() error {
	s.mu.Lock()
	s.source = nil
	s.lastSaved = ""
	s.mu.Unlock()

	if err := os.Remove(s.tokenPath); err != nil && !os.IsNotExist(err) {
		return &Error{Op: "remove token cache", Err: err}
	}
	return nil
}

func (s *Store) arm(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = s.config.TokenSource(context.Background(), tok)
	s.lastSaved = tok.AccessToken
}

// persistRotation re-saves the cache when the oauth2 source rotated the
// access token, so the next session skips the consent flow.
func (s *Store) persistRotation(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.lastSaved {
		return
	}
	if err := writeToken(s.tokenPath, tok); err == nil {
		s.lastSaved = tok.AccessToken
	}
}

type storeSource struct {
	ctx   context.Context
	store *Store
}

func (ss storeSource) Token() (*oauth2.Token, error) {
	return ss.store.Token(ss.ctx)
}

func readToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
