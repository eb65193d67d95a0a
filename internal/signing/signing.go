// Package signing authenticates server-to-server requests with a shared
// secret: an HMAC-SHA256 digest over a canonical payload, a bounded
// timestamp window, and a replay cache keyed by signature.
package signing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
)

// Wire contract shared by signer and verifier. Window is fixed: both
// sides must agree or interop breaks.
const (
	HeaderTimestamp = "X-Nexus-Timestamp"
	HeaderSignature = "X-Nexus-Signature"

	Window = 300 * time.Second
)

// Payload builds the canonical string both sides sign:
//
//	UPPERCASE(method) + ":" + path + ":" + timestamp + ":" + body
//
// where body is the serialized JSON body or empty when absent. Any
// divergence in this construction breaks verification, so it is the only
// place the string is assembled.
func Payload(method, path, timestamp string, body []byte) string {
	return strings.ToUpper(method) + ":" + path + ":" + timestamp + ":" + string(body)
}

// Sign computes the lowercase-hex HMAC-SHA256 of payload under secret.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// ReplayCache records signatures accepted within the validity window.
// Implementations must be safe for concurrent use.
type ReplayCache interface {
	// Seen reports whether the signature was accepted before and has not
	// yet expired. Implementations may purge expired entries here.
	Seen(ctx context.Context, signature string) (bool, error)
	// Remember stores the signature for ttl.
	Remember(ctx context.Context, signature string, ttl time.Duration) error
}

// Signer produces the headers an internal client attaches to a request.
type Signer struct {
	secret string
	now    func() time.Time
}

// NewSigner constructs a Signer for the shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Sign serializes body (nil means no body), timestamps the request, and
// returns the timestamp and signature header values.
func (s *Signer) Sign(method, path string, body any) (timestamp, signature string, err error) {
	if s.secret == "" {
		return "", "", &apperr.ConfigError{Msg: "internal signing secret is not set"}
	}
	var encoded []byte
	if body != nil {
		encoded, err = json.Marshal(body)
		if err != nil {
			return "", "", fmt.Errorf("encode body: %w", err)
		}
	}
	timestamp = strconv.FormatInt(s.now().Unix(), 10)
	signature = Sign(s.secret, Payload(method, path, timestamp, encoded))
	return timestamp, signature, nil
}

// Verifier checks inbound internal requests. The replay cache is an
// injected dependency so it can be tested in isolation and swapped for a
// distributed implementation.
type Verifier struct {
	secret string
	cache  ReplayCache
	now    func() time.Time
}

// NewVerifier constructs a Verifier over the given replay cache.
func NewVerifier(secret string, cache ReplayCache) *Verifier {
	return &Verifier{secret: secret, cache: cache, now: time.Now}
}

// Verify authenticates one request. body is the raw request body as
// received (empty for bodiless requests); timestamp and signature are the
// respective header values. A nil return admits the request and marks the
// signature as used for the remainder of the window.
//
// Failures are *apperr.ConfigError (no secret configured) or
// *apperr.AuthError with a reason that is logged, never returned to the
// caller.
func (v *Verifier) Verify(ctx context.Context, method, path string, body []byte, timestamp, signature string) error {
	if v.secret == "" {
		return &apperr.ConfigError{Msg: "internal signing secret is not set"}
	}
	if timestamp == "" || signature == "" {
		return &apperr.AuthError{Reason: apperr.ReasonMissingHeaders}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return &apperr.AuthError{Reason: apperr.ReasonExpired}
	}
	// Compare in integer seconds: converting the skew to a Duration
	// would overflow for extreme (but parseable) timestamps.
	skew := v.now().Unix() - ts
	if max := int64(Window / time.Second); skew > max || skew < -max {
		return &apperr.AuthError{Reason: apperr.ReasonExpired}
	}

	seen, err := v.cache.Seen(ctx, signature)
	if err != nil {
		return fmt.Errorf("replay cache lookup: %w", err)
	}
	if seen {
		return &apperr.AuthError{Reason: apperr.ReasonReplay}
	}

	expected := Sign(v.secret, Payload(method, path, timestamp, body))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return &apperr.AuthError{Reason: apperr.ReasonInvalidSignature}
	}

	if err := v.cache.Remember(ctx, signature, Window); err != nil {
		return fmt.Errorf("replay cache store: %w", err)
	}
	return nil
}
