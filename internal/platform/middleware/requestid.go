// Package middleware contains the HTTP middleware chain shared by all
// feature routers: correlation IDs, request-scoped time, device metadata,
// structured request logging, panic recovery, latency metrics, and JWT
// authentication.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"attest/pkg/requestcontext"
)

// RequestID assigns a correlation ID to every request, honoring an incoming
// X-Request-ID header so IDs survive proxy hops.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
