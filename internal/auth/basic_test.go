package auth

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashOf(t *testing.T, token string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func writeCredentials(t *testing.T, hashes ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	content := ""
	for _, h := range hashes {
		content += h + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBasicAuthenticateAcceptsMatchingToken(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "secret-token"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	assert.True(t, b.Authenticate("Basic secret-token"))
}

func TestBasicAuthenticateRejectsWrongToken(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "secret-token"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	assert.False(t, b.Authenticate("Basic wrong-token"))
}

// Every configured hash is checked, not just the first one on the list.
func TestBasicAuthenticateChecksEveryHashNotJustFirst(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "first-token"), hashOf(t, "second-token"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	assert.True(t, b.Authenticate("Basic first-token"))
	assert.True(t, b.Authenticate("Basic second-token"))
}

func TestBasicAuthenticateRejectsMalformedHeader(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "secret-token"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	assert.False(t, b.Authenticate(""))
	assert.False(t, b.Authenticate("Basic"))
}

func TestLoadBasicRejectsEmptyFile(t *testing.T) {
	path := writeCredentials(t)
	_, err := LoadBasic(path)
	assert.Error(t, err)
}

// A standard "Basic base64(user:password)" header authenticates against
// the password half of the decoded pair, per the decode/extract rule.
func TestBasicAuthenticateDecodesUserPasswordPair(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "hunter2"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	token := base64.StdEncoding.EncodeToString([]byte("alice:hunter2"))
	assert.True(t, b.Authenticate("Basic "+token))
}

func TestBasicAuthenticateRejectsWrongPasswordInPair(t *testing.T) {
	path := writeCredentials(t, hashOf(t, "hunter2"))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	token := base64.StdEncoding.EncodeToString([]byte("alice:wrong"))
	assert.False(t, b.Authenticate("Basic "+token))
}

// A token that base64-decodes but carries no ':' is compared as-is,
// since there is no password substring to extract.
func TestBasicAuthenticateFallsBackToRawTokenWhenDecodedHasNoColon(t *testing.T) {
	raw := "no-colon-here"
	token := base64.StdEncoding.EncodeToString([]byte(raw))
	path := writeCredentials(t, hashOf(t, token))
	b, err := LoadBasic(path)
	require.NoError(t, err)

	assert.True(t, b.Authenticate("Basic "+token))
}
