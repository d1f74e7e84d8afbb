// Package handler exposes the account-security operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attest/internal/security/models"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// Service defines the security operations the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	ChangePassword(ctx context.Context, subjectID id.SubjectID, current, newPassword, confirm string) error
	GetPolicy(ctx context.Context) (models.Policy, error)
	UpdatePolicy(ctx context.Context, actorID id.SubjectID, intervalDays int) (models.Policy, error)
}

// Handler wires security endpoints to the security service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated login endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// Register mounts the authenticated account endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/account/password", h.HandleChangePassword)
}

// RegisterAdmin mounts the policy administration endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/security-policy", h.HandleGetPolicy)
	r.Put("/admin/security-policy", h.HandleUpdatePolicy)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{AccessToken: token, TokenType: "Bearer"})
}

// HandleChangePassword handles POST /account/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangePasswordRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.ChangePassword(ctx, subjectID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		h.logger.WarnContext(ctx, "password change refused",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", subjectID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "password changed",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "changed"})
}

// HandleGetPolicy handles GET /admin/security-policy.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetPolicy(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(policy))
}

// HandleUpdatePolicy handles PUT /admin/security-policy.
func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := requestcontext.SubjectID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdatePolicyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	policy, err := h.service.UpdatePolicy(ctx, actorID, req.PasswordChangeIntervalDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "security policy updated",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", actorID.String(),
		"interval_days", policy.PasswordChangeIntervalDays,
	)
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(policy))
}
