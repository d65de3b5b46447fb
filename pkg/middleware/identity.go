package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/storefront-search/pkg/logger"
)

// UserIDHeader identifies the shopper on storefront requests. It is set by
// the gateway after authentication.
const UserIDHeader = "X-User-ID"

// maxUserIDLen bounds identifiers accepted from the header.
const maxUserIDLen = 128

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Identity copies the shopper ID from the X-User-ID header into the request
// context. Oversized values are ignored.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID != "" && len(userID) <= maxUserIDLen {
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = logger.WithUserID(ctx, userID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the shopper ID stored by Identity.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
