package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const memberIDKey contextKey = "member_id"

// MemberAuthMiddleware trusts the X-Member-ID header set by the upstream
// auth layer. Requests without a valid id get 401.
// IMPORTANT: nothing here verifies the caller. The service must only be
// reachable through the gateway, which strips any client-sent X-Member-ID
// and sets it from the authenticated session.
func MemberAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, err := strconv.ParseInt(r.Header.Get("X-Member-ID"), 10, 64)
		if err != nil || memberID <= 0 {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing member authentication")
			return
		}

		ctx := context.WithValue(r.Context(), memberIDKey, memberID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnlyMiddleware rejects requests not flagged as admin by the upstream
// auth layer. Only the exact value "true" passes.
// IMPORTANT: the X-Admin header is taken at face value. Deploy behind the
// gateway that strips it from client requests and sets it for admin
// sessions; exposed directly, any client can call the admin routes.
func AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin") != "true" {
			respondError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware echoes the id assigned by chi's RequestID middleware in
// the X-Request-ID response header. It must run after middleware.RequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestID := middleware.GetReqID(r.Context()); requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		next.ServeHTTP(w, r)
	})
}

func getMemberIDFromContext(ctx context.Context) int64 {
	if memberID, ok := ctx.Value(memberIDKey).(int64); ok {
		return memberID
	}
	return 0
}

func getRequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}
