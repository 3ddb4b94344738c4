package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(tokenEnv, "")
	return home
}

func TestGetToken_NotLoggedIn(t *testing.T) {
	setHome(t)

	ti, err := GetToken()
	require.NoError(t, err)
	assert.Nil(t, ti)

	tok, err := BearerToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestGetToken_EnvWins(t *testing.T) {
	setHome(t)
	require.NoError(t, SetToken("from-file", nil))
	t.Setenv(tokenEnv, "Bearer from-env")

	ti, err := GetToken()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "from-env", ti.Token)
	assert.Equal(t, "env", ti.Source)
}

func TestSetToken_RoundTrip(t *testing.T) {
	setHome(t)
	require.NoError(t, SetToken("  bearer abc123 ", nil))

	p, err := CredFilePath()
	require.NoError(t, err)
	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	tok, err := BearerToken()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	require.NoError(t, DeleteToken())
	require.NoError(t, DeleteToken(), "deleting twice is fine")

	tok, err = BearerToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSetToken_Empty(t *testing.T) {
	setHome(t)
	assert.Error(t, SetToken("   ", nil))
}

func TestBearerToken_Expired(t *testing.T) {
	setHome(t)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, SetToken("old", &past))

	tok, err := BearerToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSetToken_UnusableHome(t *testing.T) {
	home := setHome(t)
	// ~/.feedr exists as a plain file, so the credentials dir cannot be made
	require.NoError(t, os.WriteFile(filepath.Join(home, ".feedr"), []byte("x"), 0o600))

	err := SetToken("abc", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create credentials dir")
}

func TestSetToken_WritesCredFilePath(t *testing.T) {
	home := setHome(t)
	exp := time.Now().Add(time.Hour).Round(time.Second)
	require.NoError(t, SetToken("abc", &exp))

	p, err := CredFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".feedr", "credentials.json"), p)
	assert.NoFileExists(t, p+".tmp")

	ti, err := GetToken()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, SourceFile, ti.Source)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, exp.Equal(*ti.ExpiresAt))
	assert.False(t, ti.Expired(time.Now()))
}

func TestGetToken_CorruptFile(t *testing.T) {
	setHome(t)
	p, err := CredFilePath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	_, err = GetToken()
	assert.ErrorContains(t, err, "parse credentials")
}
