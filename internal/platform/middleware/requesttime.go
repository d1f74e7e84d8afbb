package middleware

import (
	"net/http"
	"time"

	"attest/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request so all
// operations within it observe the same instant. Expiry windows and rotation
// policy checks read this value through requestcontext.Now.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
