package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type userKey struct{}

// Authenticator resolves the verified user id behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, bool)
}

// StaticAuthenticator accepts bearer tokens from a fixed table and, when
// trustedHeader is set, a user id injected by an upstream gateway.
type StaticAuthenticator struct {
	tokens        map[string]string
	trustedHeader string
}

func NewStaticAuthenticator(tokens map[string]string, trustedHeader string) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: tokens, trustedHeader: trustedHeader}
}

func (a *StaticAuthenticator) Authenticate(r *http.Request) (string, bool) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		user, found := a.tokens[strings.TrimSpace(token)]
		return user, found && user != ""
	}

	if a.trustedHeader != "" {
		if user := strings.TrimSpace(r.Header.Get(a.trustedHeader)); user != "" {
			return user, true
		}
	}

	return "", false
}

// Authenticate rejects requests without a verified user before any handler runs.
func Authenticate(log *slog.Logger, auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.Authenticate(r)
			if !ok {
				log.Debug("request rejected", "path", r.URL.Path, "reason", "unauthenticated")
				respondError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userKey{}).(string)
	return userID
}
