package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/session"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type contextKey string

const UserContextKey = contextKey("user")

// SessionSource is the read side of a session coordinator.
type SessionSource interface {
	Scope() session.Scope
	State() session.State
	User() *models.User
}

type SessionMiddleware struct {
	session SessionSource
}

func NewSessionMiddleware(source SessionSource) *SessionMiddleware {
	return &SessionMiddleware{session: source}
}

// RequireSession rejects requests while the session is signed out, so they
// never reach the store API without credentials. The profile snapshot, if
// any, is put in the request context.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		if m.session.State() == session.Unauthenticated {
			logger.Warn("Request without a session", slog.String("scope", string(m.session.Scope())))
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		ctx := r.Context()
		if user := m.session.User(); user != nil {
			ctx = context.WithValue(ctx, UserContextKey, user)
			ctx = context.WithValue(ctx, LoggerKey, logger.With(slog.String("userID", user.ID.String())))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the profile stored by RequireSession.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)

	return user, ok
}
