package middleware

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"attest/pkg/requestcontext"
)

// Device parses the User-Agent header into a short "Browser x.y on OS"
// summary. Audit events for credential changes record it so a user can spot
// a change made from an unfamiliar device.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("User-Agent")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		ua := useragent.New(raw)
		name, version := ua.Browser()
		summary := fmt.Sprintf("%s %s on %s", name, version, ua.OS())
		if ua.Bot() {
			summary = "bot: " + name
		}

		ctx := requestcontext.WithDevice(r.Context(), summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
