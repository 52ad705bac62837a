package utils // package utils provides the admin session token codec, phone helpers and password checks

import (
	"crypto/rand"   // secure random nonce generation
	"encoding/hex"  // hex encoding of nonce and tag
	"errors"        // sentinel errors
	"strconv"       // parsing the issued-at timestamp
	"strings"       // token splitting
	"time"          // token lifetime

	"github.com/golang-jwt/jwt/v5" // HS256 signing primitive (HMAC-SHA256 with constant-time verify)

	"github.com/iliyamo/appointment-booking/internal/clock"
)

// AdminCookieName is the cookie that carries the admin session token.
const AdminCookieName = "admin_token"

// SessionTTL is how long an admin session token stays valid after issue.
const SessionTTL = 7 * 24 * time.Hour

// ErrMissingSecret is returned when the codec is built without a signing key.
var ErrMissingSecret = errors.New("missing ADMIN_AUTH_SECRET")

// SessionCodec signs and verifies self-certifying admin session tokens.
//
// A token has the form "<issuedAtMillis>:<nonceHex>.<tagHex>" where the tag
// is HMAC-SHA256(secret, payload) hex encoded.  Nothing is stored server
// side: logout only clears the cookie, so a leaked token stays valid until
// it expires.
type SessionCodec struct {
	secret []byte
	clock  clock.Clock
}

// NewSessionCodec builds a codec for the given secret.  An empty secret is
// a configuration error.
func NewSessionCodec(secret string, clk clock.Clock) (*SessionCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &SessionCodec{secret: []byte(secret), clock: clk}, nil
}

// Issue mints a fresh token for the current instant with a 128-bit nonce.
func (s *SessionCodec) Issue() (string, error) {
	nonce, err := randomHex(16)
	if err != nil {
		return "", err
	}
	payload := strconv.FormatInt(s.clock.Now().UnixMilli(), 10) + ":" + nonce
	return s.Sign(payload)
}

// Sign appends the hex HMAC tag of payload.
func (s *SessionCodec) Sign(payload string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	sig, err := jwt.SigningMethodHS256.Sign(payload, s.secret)
	if err != nil {
		return "", err
	}
	return payload + "." + hex.EncodeToString(sig), nil
}

// Verify reports whether token carries a valid tag and was issued less than
// SessionTTL ago.  Tokens from the future are rejected, not clamped.
func (s *SessionCodec) Verify(token string) bool {
	if s == nil || len(s.secret) == 0 {
		return false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}
	payload, tag := parts[0], parts[1]
	sig, err := hex.DecodeString(tag)
	if err != nil || len(sig) == 0 {
		return false
	}
	if err := jwt.SigningMethodHS256.Verify(payload, sig, s.secret); err != nil {
		return false
	}

	tsStr, _, _ := strings.Cut(payload, ":")
	issuedAt, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return false
	}
	age := s.clock.Now().UnixMilli() - issuedAt
	return age >= 0 && age < SessionTTL.Milliseconds()
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
