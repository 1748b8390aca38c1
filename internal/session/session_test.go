package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCreds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadNormalizesDefaults(t *testing.T) {
	path := writeCreds(t, `[
		{"name": "auth_token", "value": "tok"},
		{"name": "ct0", "value": "csrf", "domain": "x.com", "path": "/home", "secure": false}
	]`)

	s, err := Load(path)
	require.NoError(t, err)

	creds := s.Credentials()
	require.Len(t, creds, 2)

	assert.Equal(t, ".x.com", creds[0].Domain)
	assert.Equal(t, "/", creds[0].Path)
	assert.Equal(t, float64(-1), creds[0].Expires)
	assert.True(t, creds[0].Secure)

	// Explicit values survive normalization.
	assert.Equal(t, "x.com", creds[1].Domain)
	assert.Equal(t, "/home", creds[1].Path)
	assert.False(t, creds[1].Secure)
}

func TestLoadMissingRequiredCookie(t *testing.T) {
	path := writeCreds(t, `[{"name": "auth_token", "value": "tok"}]`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadEmptyRequiredValue(t *testing.T) {
	path := writeCreds(t, `[
		{"name": "auth_token", "value": ""},
		{"name": "ct0", "value": "csrf"}
	]`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeCreds(t, `{"not": "a list"}`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCredentialsReturnsCopy(t *testing.T) {
	path := writeCreds(t, `[
		{"name": "auth_token", "value": "tok"},
		{"name": "ct0", "value": "csrf"}
	]`)

	s, err := Load(path)
	require.NoError(t, err)

	creds := s.Credentials()
	creds[0].Value = "mutated"
	assert.Equal(t, "tok", s.Credentials()[0].Value)
}
