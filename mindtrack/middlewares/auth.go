package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/utils/errs"
	httputils "mindtrack/mindtrack/utils/http"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// IssueToken signs an HS256 token whose "id" claim is the user id.
func IssueToken(secret string, userID int, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies tokenStr and returns the user id it carries.
func ParseToken(secret, tokenStr string) (int, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errs.Unauthenticated("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errs.Unauthenticated("invalid claims")
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, errs.Unauthenticated("invalid user id")
	}
	return int(id), nil
}

// tokenFromRequest reads x-access-token, then Authorization. A "Bearer "
// prefix is optional.
func tokenFromRequest(r *http.Request) string {
	token := r.Header.Get("x-access-token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

// AuthMiddleware rejects requests without a token with 403 and requests with
// a bad one with 401. Accepted requests carry the user id under UserIDKey.
func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				msg := "Token tidak disediakan!"
				if httputils.Lang(r) == "en" {
					msg = "No token provided!"
				}
				httputils.WriteJSON(w, http.StatusForbidden, map[string]string{"message": msg})
				return
			}
			userID, err := ParseToken(cfg.JWTSecret, tokenStr)
			if err != nil {
				httputils.WriteError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the id stored by AuthMiddleware.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}
