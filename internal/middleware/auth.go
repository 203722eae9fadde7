package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/opschief/internal/domain"
)

type contextKey string

const (
	// ContextKeyOperator is the key for storing the operator in request context.
	ContextKeyOperator contextKey = "operator"
)

// OperatorSource looks operators up by bearer token.
type OperatorSource interface {
	GetByToken(ctx context.Context, token string) (*domain.Operator, error)
}

// AuthMiddleware handles Bearer token authentication.
type AuthMiddleware struct {
	operators OperatorSource
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(operators OperatorSource) *AuthMiddleware {
	return &AuthMiddleware{
		operators: operators,
	}
}

// Authenticate validates Bearer token and adds the operator to request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		// Parse Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		operator, err := m.operators.GetByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrOperatorNotFound) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			slog.Error("failed to look up operator", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if !operator.IsActive {
			http.Error(w, "operator inactive", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyOperator, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperatorFromContext retrieves the authenticated operator from request context.
func GetOperatorFromContext(ctx context.Context) (*domain.Operator, error) {
	operator, ok := ctx.Value(ContextKeyOperator).(*domain.Operator)
	if !ok || operator == nil {
		return nil, domain.ErrOperatorNotFound
	}
	return operator, nil
}

// WithOperator returns a copy of ctx carrying operator.
func WithOperator(ctx context.Context, operator *domain.Operator) context.Context {
	return context.WithValue(ctx, ContextKeyOperator, operator)
}
