// Package httputil centralizes JSON encoding/decoding and error rendering
// for HTTP handlers. Error bodies follow the error / error_description shape;
// internal errors render without a description so storage and pipeline
// details never reach clients.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "attest/pkg/domain-errors"
)

// Validatable is implemented by request types that validate and parse
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// errorTokens maps domain codes to wire-level error tokens.
var errorTokens = map[dErrors.Code]string{
	dErrors.CodeBadRequest:   "bad_request",
	dErrors.CodeUnauthorized: "unauthorized",
	dErrors.CodeForbidden:    "forbidden",
	dErrors.CodeNotFound:     "not_found",
	dErrors.CodeConflict:     "conflict",
	dErrors.CodeExpired:      "expired",
	dErrors.CodeUnavailable:  "unavailable",
	dErrors.CodeInternal:     "internal_error",
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError renders err as a JSON error body. The status and token come
// from the domain code; an uncoded error renders as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": errorTokens[code]}
	if code != dErrors.CodeInternal {
		body["error_description"] = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false; the handler
// just returns.
func DecodeAndPrepare[T any, PT interface {
	Validatable
	*T
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if err := PT(req).Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
