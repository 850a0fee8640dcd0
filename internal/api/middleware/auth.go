package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
	"github.com/SenjeyB/LinkadooDemo/internal/token"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// ErrInvalidToken is returned by Resolve for credentials that do not
// verify or do not map to a known user.
var ErrInvalidToken = errors.New("invalid or expired token")

// Auth turns bearer credentials into an authenticated identity. The
// same validation path serves both the REST surface (Authorization
// header) and the WebSocket handshake (token query parameter, via
// Resolve).
type Auth struct {
	tokens *token.Service
	store  store.DataStore
}

// NewAuth creates the auth middleware.
func NewAuth(tokens *token.Service, s store.DataStore) *Auth {
	return &Auth{tokens: tokens, store: s}
}

// Authenticate attaches the resolved identity to the request context.
// Missing or invalid credentials never fail here: the request proceeds
// anonymously and each protected route decides via RequireAuth.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Re-validating an already-authenticated request is a no-op.
		if UserFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.Resolve(r.Context(), raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that carry no identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Resolve validates a raw token and looks up the full identity. Used
// directly by the WebSocket handshake, where a failure refuses the
// upgrade.
func (a *Auth) Resolve(ctx context.Context, raw string) (*models.User, error) {
	if !a.tokens.Validate(raw) {
		return nil, ErrInvalidToken
	}

	username, err := a.tokens.ExtractUsername(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// UserFromContext retrieves the authenticated user from the request
// context, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(IdentityContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(raw)
	}
	return ""
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
