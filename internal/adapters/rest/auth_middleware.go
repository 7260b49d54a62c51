package rest

import (
	"errors"
	"net/http"
	"strings"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
	"rentals-service/internal/core/port/usecases_port"
)

type AuthMiddleware struct {
	validateUC usecases_port.ValidateTokenUseCasePort
	refreshUC  usecases_port.RefreshSessionUseCasePort
}

func NewAuthMiddleware(validateUC usecases_port.ValidateTokenUseCasePort, refreshUC usecases_port.RefreshSessionUseCasePort) *AuthMiddleware {
	return &AuthMiddleware{validateUC: validateUC, refreshUC: refreshUC}
}

// Authenticate - middleware для проверки JWT. Сессия кладется в контекст запроса.
func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return am.authenticate(next, false, false)
}

// AuthenticateStream дополнительно принимает токен из параметра access_token:
// EventSource в браузере не умеет передавать заголовки.
func (am *AuthMiddleware) AuthenticateStream(next http.Handler) http.Handler {
	return am.authenticate(next, false, true)
}

// OptionalAuth пропускает анонимные запросы, но отклоняет битый токен.
func (am *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return am.authenticate(next, true, false)
}

func (am *AuthMiddleware) authenticate(next http.Handler, optional, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := contextkeys.LoggerFromContext(r.Context())

		tokenString, ok := bearerToken(r)
		if !ok && allowQuery {
			tokenString = r.URL.Query().Get("access_token")
			ok = tokenString != ""
		}
		if !ok {
			if optional && r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			WriteJSONError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		session, err := am.validateUC.Execute(r.Context(), tokenString)
		if err != nil {
			logger.Warn("Token rejected", port.Fields{"reason": err.Error()})
			WriteJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := contextkeys.ContextWithSession(r.Context(), *session)
		ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"user_id": session.UserID}))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole - middleware для проверки роли пользователя.
// Роль берется из хранилища, а не из токена: понижение роли действует сразу.
func (am *AuthMiddleware) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := contextkeys.LoggerFromContext(r.Context())

			session := contextkeys.SessionFromContext(r.Context())
			if session == nil {
				WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			current, err := am.refreshUC.Execute(r.Context(), session)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
					return
				}
				logger.Error("Failed to refresh session", err, nil)
				WriteJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if current.Role != role {
				logger.Warn("Role check failed", port.Fields{"required": role.String(), "role": current.Role.String()})
				WriteJSONError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(contextkeys.ContextWithSession(r.Context(), *current)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", false
	}
	return strings.TrimSpace(tokenString), true
}
