// Package handler exposes the verification workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	identity "attest/internal/identity/models"
	"attest/internal/verification/models"
	"attest/internal/verification/service"
	id "attest/pkg/domain"
	dErrors "attest/pkg/domain-errors"
	"attest/pkg/platform/httputil"
	"attest/pkg/requestcontext"
)

// maxSubmissionBytes bounds the whole multipart submission: two document
// sides plus form overhead.
const maxSubmissionBytes = 11 << 20

// Service defines the verification operations the handler needs.
type Service interface {
	Status(ctx context.Context, subjectID id.SubjectID) (service.StatusView, error)
	RequestEmailVerification(ctx context.Context, subjectID id.SubjectID) error
	RedeemEmailToken(ctx context.Context, token string) (models.TrackSummary, error)
	RequestPhoneVerification(ctx context.Context, subjectID id.SubjectID) error
	VerifyPhoneCode(ctx context.Context, subjectID id.SubjectID, code string) (models.TrackSummary, error)
	SubmitIDDocument(ctx context.Context, subjectID id.SubjectID, docType identity.DocumentType, front service.Upload, back *service.Upload) error
	DecideIDDocument(ctx context.Context, subjectID, reviewerID id.SubjectID, outcome identity.ReviewOutcome, reason string) error
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts subject-facing verification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verification/status", h.HandleStatus)
	r.Post("/verification/email/request", h.HandleRequestEmail)
	r.Post("/verification/phone/request", h.HandleRequestPhone)
	r.Post("/verification/phone/verify", h.HandleVerifyPhone)
	r.Post("/verification/id", h.HandleSubmitDocument)
}

// RegisterPublic mounts endpoints that work without an authenticated session.
// Token redemption happens from an email link, so the subject may not be
// logged in on the device that opens it.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/verification/email/redeem", h.HandleRedeemEmail)
	r.Get("/verification/email/redeem", h.HandleRedeemEmail)
}

// RegisterAdmin mounts reviewer endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/verification/{subjectID}/decision", h.HandleDecision)
}

// HandleStatus handles GET /verification/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	view, err := h.service.Status(ctx, subjectID)
	if err != nil {
		h.logError(ctx, "status lookup failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatusView(view))
}

// HandleRequestEmail handles POST /verification/email/request.
func (h *Handler) HandleRequestEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.RequestEmailVerification(ctx, subjectID); err != nil {
		h.logError(ctx, "email verification request failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// HandleRedeemEmail handles both the POSTed form and the GET link from the
// verification email.
func (h *Handler) HandleRedeemEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	token := r.URL.Query().Get("token")
	if token == "" && r.Method == http.MethodPost {
		req, ok := httputil.DecodeAndPrepare[RedeemEmailRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		token = req.Token
	}

	summary, err := h.service.RedeemEmailToken(ctx, token)
	if err != nil {
		h.logger.WarnContext(ctx, "email token redemption failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTrackSummary(summary))
}

// HandleRequestPhone handles POST /verification/phone/request.
func (h *Handler) HandleRequestPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.RequestPhoneVerification(ctx, subjectID); err != nil {
		h.logError(ctx, "phone verification request failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// HandleVerifyPhone handles POST /verification/phone/verify.
func (h *Handler) HandleVerifyPhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyPhoneRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	summary, err := h.service.VerifyPhoneCode(ctx, subjectID, req.Code)
	if err != nil {
		h.logError(ctx, "phone code verification failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTrackSummary(summary))
}

// HandleSubmitDocument handles POST /verification/id. The body is multipart:
// a document_type field, a front file, and a back file when the type needs
// one.
func (h *Handler) HandleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	subjectID := requestcontext.SubjectID(ctx)
	if subjectID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be multipart form data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	docType := identity.DocumentType(r.FormValue("document_type"))

	front, err := formUpload(r, "front")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer front.close()

	var back *service.Upload
	if len(r.MultipartForm.File["back"]) > 0 {
		b, err := formUpload(r, "back")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		defer b.close()
		back = &b.Upload
	}

	if err := h.service.SubmitIDDocument(ctx, subjectID, docType, front.Upload, back); err != nil {
		h.logError(ctx, "document submission failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity document submitted",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID.String(),
		"document_type", string(docType),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
}

// HandleDecision handles POST /admin/verification/{subjectID}/decision.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewerID := requestcontext.SubjectID(ctx)
	if reviewerID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid subject id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.service.DecideIDDocument(ctx, subjectID, reviewerID, req.ParsedOutcome(), req.Reason); err != nil {
		h.logError(ctx, "review decision failed", subjectID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "review decision recorded",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID.String(),
		"reviewer_id", reviewerID.String(),
		"outcome", req.Outcome,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) logError(ctx context.Context, msg string, subjectID id.SubjectID, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID.String(),
		"error", err,
	)
}
