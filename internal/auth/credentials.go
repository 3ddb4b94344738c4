// Package auth stores the API token used to talk to the feed server.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	credDirName  = ".feedr"
	credFileName = "credentials.json"
	tokenEnv     = "FEEDR_TOKEN"
)

// Token sources reported in TokenInfo.Source.
const (
	SourceEnv  = "env"
	SourceFile = "file"
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Expired reports whether the token carries an expiry that has passed.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && now.After(*ti.ExpiresAt)
}

// credPaths returns ~/.feedr and the credentials file inside it.
func credPaths() (dir, file string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("home: %w", err)
	}
	dir = filepath.Join(home, credDirName)
	return dir, filepath.Join(dir, credFileName), nil
}

// CredFilePath is where SetToken writes.
func CredFilePath() (string, error) {
	_, file, err := credPaths()
	return file, err
}

// GetToken returns the active token, or nil when the user is not logged in.
// FEEDR_TOKEN takes precedence over the stored file.
func GetToken() (*TokenInfo, error) {
	if env := strings.TrimSpace(os.Getenv(tokenEnv)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: SourceEnv}, nil
	}

	_, file, err := credPaths()
	if err != nil {
		return nil, err
	}
	return readCredFile(file)
}

func readCredFile(file string) (*TokenInfo, error) {
	b, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", file, err)
	}
	ti.Token = stripBearer(ti.Token)
	ti.Source = SourceFile
	return &ti, nil
}

// BearerToken is the token source handed to the gateway. Missing or
// expired credentials yield an empty token, which means "send no header".
func BearerToken() (string, error) {
	ti, err := GetToken()
	if err != nil || ti == nil {
		return "", err
	}
	if ti.Expired(time.Now()) {
		return "", nil
	}
	return ti.Token, nil
}

// SetToken stores token in ~/.feedr/credentials.json (dir 0700, file 0600).
// The file is replaced in one rename so a reader never sees half a token.
func SetToken(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return errors.New("empty token")
	}

	dir, file, err := credPaths()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	b, err := json.MarshalIndent(TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token. A missing file is not an error.
func DeleteToken() error {
	_, file, err := credPaths()
	if err != nil {
		return err
	}
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[len("bearer "):])
	}
	return s
}
