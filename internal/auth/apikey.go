// Package auth implements FakeAI's API-key allowlist authentication. Bearer
// extraction and constant-time comparison are used throughout (timing-safety
// costs nothing, even though cryptographic strength of the keys themselves
// isn't a concern here); there is no persistence layer -- the allowlist is
// small and in-memory, so a flat map needs no cache in front of it.
package auth

import (
	"bufio"
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/fakeai-dev/fakeai/internal/fakeai"
)

// Authenticator validates request credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (apiKey string, err error)
}

// AllowlistAuth authenticates requests against a fixed, in-memory set of API
// keys. If Required is false, requests without credentials are admitted with
// an empty apiKey (used for per-key rate-limit/cost bucketing downstream).
type AllowlistAuth struct {
	Required bool
	allowed  map[string]struct{}
}

// NewAllowlistAuth constructs an AllowlistAuth from a literal key list.
func NewAllowlistAuth(required bool, keys []string) *AllowlistAuth {
	a := &AllowlistAuth{Required: required, allowed: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			a.allowed[k] = struct{}{}
		}
	}
	return a
}

// LoadKeyFile reads one API key per line from path. Blank lines and lines
// starting with "#" are skipped.
func LoadKeyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	return keys, scanner.Err()
}

// Authenticate extracts a Bearer token from the Authorization header and
// checks it against the allowlist.
func (a *AllowlistAuth) Authenticate(_ context.Context, r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !a.Required && len(a.allowed) == 0 {
		return strings.TrimPrefix(header, "Bearer "), nil
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return "", fakeai.ErrUnauthorized
	}
	if !a.match(raw) {
		return "", fakeai.ErrUnauthorized
	}
	return raw, nil
}

// match performs a constant-time comparison of raw against every allowed
// key, so the check's timing does not depend on a key's position in the
// allowlist.
func (a *AllowlistAuth) match(raw string) bool {
	ok := false
	for k := range a.allowed {
		if subtle.ConstantTimeCompare([]byte(k), []byte(raw)) == 1 {
			ok = true
		}
	}
	return ok
}
