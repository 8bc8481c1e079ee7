package handler

import (
	"strings"

	"empverify/internal/appeal/models"
	"empverify/pkg/domain"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/platform/validation"
)

// CreateAppealRequest is the JSON form of POST /appeals. Multipart requests
// carry the same fields plus an optional supportingDocument file.
type CreateAppealRequest struct {
	VerificationID string `json:"verificationId" validate:"required"`
	Comments       string `json:"comments" validate:"required,max=2000"`

	parsedVerificationID domain.VerificationID
}

func (r *CreateAppealRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.VerificationID = strings.TrimSpace(r.VerificationID)
	r.Comments = strings.TrimSpace(r.Comments)
	if r.VerificationID == "" || r.Comments == "" {
		return dErrors.New(dErrors.CodeValidation, "Verification ID and comments are required")
	}
	if err := validation.Struct(r, ""); err != nil {
		return err
	}
	id, err := domain.ParseVerificationID(r.VerificationID)
	if err != nil {
		return err
	}
	r.parsedVerificationID = id
	return nil
}

// RespondRequest is the body of POST /admin/appeals/{id}/respond.
type RespondRequest struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected"`
	HRResponse string `json:"hrResponse" validate:"required,max=2000"`

	parsedDecision models.Status
}

func (r *RespondRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Status = strings.TrimSpace(r.Status)
	r.HRResponse = strings.TrimSpace(r.HRResponse)
	if err := validation.Struct(r, ""); err != nil {
		return err
	}
	decision, err := models.ParseDecision(r.Status)
	if err != nil {
		return err
	}
	r.parsedDecision = decision
	return nil
}
