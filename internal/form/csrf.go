// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF token utilities.
//
// Context
//   Rendered forms embed a hidden `csrf_token` input.  Every state-changing
//   request must echo it back, either as that form value or in the
//   X-CSRF-Token header used by script clients.  The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the process secret from config (or Vault).
//
// Workflow
//   •  Configure(key, maxAge) at boot.
//   •  GenerateToken()   → token string for the renderer.
//   •  VerifyToken(tok) → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes    = 16 + 8 + sha256.Size // nonce + ts + sig
	minSecretLen  = 32
	defaultMaxAge = 2 * time.Hour

	// TokenField is the hidden input name; TokenHeader the script-client header.
	TokenField  = "csrf_token"
	TokenHeader = "X-CSRF-Token"
)

// ErrInvalidToken is returned when a request carries no valid CSRF token.
var ErrInvalidToken = errors.New("security token invalid")

var (
	secretMu  sync.RWMutex
	secretKey []byte
	maxAge    = defaultMaxAge

	now = time.Now
)

// Configure installs the signing key and token lifetime.  key must be at
// least 32 bytes.  A zero age keeps the two-hour default.
func Configure(key []byte, age time.Duration) error {
	if len(key) < minSecretLen {
		return errors.New("csrf: key shorter than 32 bytes")
	}
	secretMu.Lock()
	defer secretMu.Unlock()
	secretKey = append([]byte(nil), key...)
	if age > 0 {
		maxAge = age
	} else {
		maxAge = defaultMaxAge
	}
	return nil
}

// GenerateToken creates a new CSRF token.  Call once per form render.
func GenerateToken() (string, error) {
	sec, _ := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(now().UnixMicro()))

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	sig := mac.Sum(nil)

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sig...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks.
func VerifyToken(tok string) bool {
	sec, age := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Future timestamp (clock skew) or older than maxAge.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if now().Sub(issued) > age || issued.Sub(now()) > time.Minute {
		return false
	}

	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(tsBytes)
	want := mac.Sum(nil)

	return hmac.Equal(sig, want)
}

// VerifyRequest checks the token carried by r, header first.  r.ParseForm
// must already have run for form-encoded bodies.
func VerifyRequest(r *http.Request) bool {
	tok := r.Header.Get(TokenHeader)
	if tok == "" {
		tok = r.PostForm.Get(TokenField)
	}
	return tok != "" && VerifyToken(tok)
}

// fetchSecret returns the signing key and lifetime.  Without Configure the
// key is random per process, so tokens die with a restart.
func fetchSecret() ([]byte, time.Duration) {
	secretMu.RLock()
	sec, age := secretKey, maxAge
	secretMu.RUnlock()
	if sec != nil {
		return sec, age
	}

	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey == nil {
		secretKey = make([]byte, minSecretLen)
		_, _ = rand.Read(secretKey)
		zap.S().Warnw("csrf key not configured, using random key")
	}
	return secretKey, maxAge
}
