// Package middlewarectx содержит HTTP middleware: проверку сервисного JWT
// с областью доступа и ограничение частоты запросов.
//
// Токен проверяется локально по секретному ключу; в случае ошибки
// возвращается HTTP 401 Unauthorized, при недостаточной области — 403.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/teamgate/internal/http/response"
	"github.com/magabrotheeeer/teamgate/internal/lib/jwt"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Caller — ключ для имени вызывающего в контексте
	Caller Key = "caller"
	// Scope — ключ для области доступа в контексте
	Scope Key = "scope"
)

// TokenParser описывает интерфейс проверки сервисного токена.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке
// Authorization и требует область доступа requiredScope. Область admin
// покрывает trigger: оператор может запускать проходы вручную.
func JWTMiddleware(parser TokenParser, requiredScope string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			if !scopeAllows(claims.Scope, requiredScope) {
				log.Error("insufficient scope",
					slog.String("have", claims.Scope), slog.String("want", requiredScope))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient scope"))
				return
			}

			ctx := context.WithValue(r.Context(), Caller, claims.Caller)
			ctx = context.WithValue(ctx, Scope, claims.Scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func scopeAllows(have, want string) bool {
	if have == jwt.ScopeAdmin {
		return true
	}
	return have == want
}
