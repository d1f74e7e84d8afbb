package handler

import (
	"net/http"
	"strings"

	identity "attest/internal/identity/models"
	"attest/internal/verification/service"
	dErrors "attest/pkg/domain-errors"
)

// RedeemEmailRequest is the HTTP request body for POST /verification/email/redeem.
type RedeemEmailRequest struct {
	Token string `json:"token"`
}

func (r *RedeemEmailRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token is required")
	}
	return nil
}

// VerifyPhoneRequest is the HTTP request body for POST /verification/phone/verify.
type VerifyPhoneRequest struct {
	Code string `json:"code"`
}

func (r *VerifyPhoneRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.New(dErrors.CodeBadRequest, "code is required")
	}
	return nil
}

// DecisionRequest is the HTTP request body for the admin review decision.
type DecisionRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`

	parsedOutcome identity.ReviewOutcome
}

func (r *DecisionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)

	outcome := identity.ReviewOutcome(strings.TrimSpace(r.Outcome))
	switch outcome {
	case identity.ReviewApproved:
	case identity.ReviewRejected:
		if r.Reason == "" {
			return dErrors.New(dErrors.CodeBadRequest, "a rejection requires a reason")
		}
	default:
		return dErrors.New(dErrors.CodeBadRequest, "outcome must be approved or rejected")
	}
	r.parsedOutcome = outcome
	return nil
}

// ParsedOutcome returns the outcome parsed by Validate.
func (r *DecisionRequest) ParsedOutcome() identity.ReviewOutcome { return r.parsedOutcome }

// formFile pairs an Upload with the multipart file's close.
type formFile struct {
	Upload service.Upload
	close  func()
}

func formUpload(r *http.Request, field string) (*formFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, field+" side document is required")
	}
	return &formFile{
		Upload: service.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        file,
		},
		close: func() { _ = file.Close() },
	}, nil
}
