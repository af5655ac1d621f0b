package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecretJSON = `{
  "installed": {
    "client_id": "test-client.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["urn:ietf:wg:oauth:2.0:oob", "http://localhost"]
  }
}`

func writeClientSecret(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecretJSON), 0o600))
	return path
}

// countingSource records how many times Token is called.
type countingSource struct {
	calls int
	tok   *oauth2.Token
	err   error
}

func (c *countingSource) Token() (*oauth2.Token, error) {
	c.calls++
	return c.tok, c.err
}

func TestLoadMissingCredentials(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), "token.json")
	require.Error(t, err)

	var authErr *Error
	assert.True(t, errors.As(err, &authErr))
}

func TestLoadInvalidCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a client secret"}`), 0o600))

	_, err := Load(path, "token.json")
	require.Error(t, err)

	var authErr *Error
	assert.True(t, errors.As(err, &authErr))
}

func TestLoadWithoutCachedToken(t *testing.T) {
	creds := writeClientSecret(t)

	s, err := Load(creds, filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	assert.False(t, s.HasToken())
	assert.Contains(t, s.AuthURL(), "test-client.apps.googleusercontent.com")
}

func TestLoadWithCachedToken(t *testing.T) {
	creds := writeClientSecret(t)
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, writeToken(tokenPath, &oauth2.Token{
		AccessToken:  "cached-access",
		RefreshToken: "cached-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}))

	s, err := Load(creds, tokenPath)
	require.NoError(t, err)
	assert.True(t, s.HasToken())

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-access", tok.AccessToken)
}

func TestTokenNotAuthenticated(t *testing.T) {
	s, err := Load(writeClientSecret(t), filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	_, err = s.Token(context.Background())
	require.Error(t, err)

	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, errNotAuthenticated)
}

func TestTokenSingleRefreshAttempt(t *testing.T) {
	s, err := Load(writeClientSecret(t), filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	src := &countingSource{err: errors.New("invalid_grant")}
	s.source = src

	_, err = s.Token(context.Background())
	require.Error(t, err)

	var authErr *Error
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, 1, src.calls, "a failed refresh must not be retried")
}

func TestTokenPersistsRotation(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	s, err := Load(writeClientSecret(t), tokenPath)
	require.NoError(t, err)

	rotated := &oauth2.Token{
		AccessToken:  "rotated-access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	s.source = &countingSource{tok: rotated}

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", tok.AccessToken)

	saved, err := readToken(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "rotated-access", saved.AccessToken)
}

func TestTokenSourceKeepsErrorType(t *testing.T) {
	s, err := Load(writeClientSecret(t), filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	_, err = s.TokenSource(context.Background()).Token()
	require.Error(t, err)

	var authErr *Error
	assert.True(t, errors.As(err, &authErr))
}

func TestReset(t *testing.T) {
	creds := writeClientSecret(t)
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, writeToken(tokenPath, &oauth2.Token{
		AccessToken: "a",
		Expiry:      time.Now().Add(time.Hour),
	}))

	s, err := Load(creds, tokenPath)
	require.NoError(t, err)
	require.True(t, s.HasToken())

	require.NoError(t, s.Reset())
	assert.False(t, s.HasToken())
	assert.NoFileExists(t, tokenPath)

	// Resetting again is a no-op.
	require.NoError(t, s.Reset())
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	in := &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(30 * time.Minute).Round(time.Second),
	}
	require.NoError(t, writeToken(path, in))

	out, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, in.AccessToken, out.AccessToken)
	assert.Equal(t, in.RefreshToken, out.RefreshToken)
	assert.True(t, in.Expiry.Equal(out.Expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
