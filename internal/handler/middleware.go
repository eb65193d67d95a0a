package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Jayanthmurala/nexus-backend/internal/apperr"
	"github.com/Jayanthmurala/nexus-backend/internal/model"
	"github.com/Jayanthmurala/nexus-backend/internal/signing"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromContext returns the verified caller identity set by
// RequireIdentity. Handlers behind that middleware may assume it is set.
func IdentityFromContext(ctx context.Context) model.Identity {
	ident, _ := ctx.Value(identityKey).(model.Identity)
	return ident
}

// Logger is a structured access-log middleware.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// authClaims is the shape of the identity provider's token payload.
type authClaims struct {
	Roles      []string `json:"roles"`
	College    string   `json:"college"`
	Department string   `json:"department"`
	jwt.RegisteredClaims
}

// RequireIdentity resolves the caller from a bearer token issued by the
// identity provider. Any validation failure is a generic 401, never a
// silent anonymous fallthrough.
func RequireIdentity(secret, issuer, audience string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				return
			}

			claims := &authClaims{}
			_, err := jwt.ParseWithClaims(raw, claims,
				func(*jwt.Token) (any, error) { return []byte(secret), nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithIssuer(issuer),
				jwt.WithAudience(audience),
			)
			if err != nil || claims.Subject == "" {
				log.Warn("bearer token rejected", "reason", apperr.ReasonInvalidToken, "error", err)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
				return
			}

			ident := model.Identity{
				Subject:    claims.Subject,
				Roles:      claims.Roles,
				College:    claims.College,
				Department: claims.Department,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, ident)))
		})
	}
}

// RequireSigned authenticates server-to-server requests through the
// signed-request verifier. The body is buffered so the verifier sees the
// exact bytes the client signed, then restored for the handler.
//
// Every authentication failure is an opaque 401; the granular reason
// (expired, replay, invalid signature) is logged only, so the endpoint
// never acts as an oracle.
func RequireSigned(verifier *signing.Verifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body []byte
			if r.Body != nil {
				var err error
				body, err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
				if err != nil {
					writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			err := verifier.Verify(r.Context(), r.Method, r.URL.RequestURI(), body,
				r.Header.Get(signing.HeaderTimestamp), r.Header.Get(signing.HeaderSignature))
			if err != nil {
				var ce *apperr.ConfigError
				if errors.As(err, &ce) {
					log.Error("internal endpoint misconfigured", "error", ce)
					writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
					return
				}
				if ae, ok := apperr.IsAuth(err); ok {
					log.Warn("signed request rejected",
						"reason", ae.Reason,
						"method", r.Method,
						"path", r.URL.Path,
					)
					writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
					return
				}
				// Anything else is infrastructure (replay cache down), not
				// a bad credential.
				log.Error("signature verification failed", "error", err)
				writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
