package handler

import (
	"time"

	"empverify/internal/verification/comparator"
	"empverify/internal/verification/models"
)

// ValidateEmployeeResponse is returned once identity is confirmed.
type ValidateEmployeeResponse struct {
	EmployeeID string `json:"employeeId"`
}

// ComparisonResponse is one field of a verification report.
type ComparisonResponse struct {
	Field         string `json:"field"`
	Label         string `json:"label"`
	VerifierValue string `json:"verifierValue"`
	CompanyValue  string `json:"companyValue"`
	IsMatch       bool   `json:"isMatch"`
}

// VerificationResponse is the client view of a verification record.
type VerificationResponse struct {
	VerificationID    string               `json:"verificationId"`
	EmployeeID        string               `json:"employeeId"`
	ComparisonResults []ComparisonResponse `json:"comparisonResults"`
	OverallStatus     string               `json:"overallStatus"`
	MatchScore        int                  `json:"matchScore"`
	ConsentGiven      bool                 `json:"consentGiven"`
	ReportURL         string               `json:"reportUrl,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	CompletedAt       *time.Time           `json:"completedAt,omitempty"`
}

// VerificationListResponse wraps a verifier's records.
type VerificationListResponse struct {
	Verifications []VerificationResponse `json:"verifications"`
	Total         int                    `json:"total"`
}

func toComparisons(results []comparator.Result) []ComparisonResponse {
	out := make([]ComparisonResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ComparisonResponse{
			Field:         r.Field,
			Label:         r.Label,
			VerifierValue: r.VerifierValue,
			CompanyValue:  r.CompanyValue,
			IsMatch:       r.IsMatch,
		})
	}
	return out
}

// FromRecord converts a record for transport.
func FromRecord(rec *models.VerificationRecord) VerificationResponse {
	return VerificationResponse{
		VerificationID:    rec.ID.String(),
		EmployeeID:        rec.EmployeeID.String(),
		ComparisonResults: toComparisons(rec.ComparisonResults),
		OverallStatus:     rec.OverallStatus.String(),
		MatchScore:        rec.MatchScore,
		ConsentGiven:      rec.ConsentGiven,
		ReportURL:         rec.ReportURL,
		CreatedAt:         rec.CreatedAt,
		CompletedAt:       rec.CompletedAt,
	}
}

// FromRecords converts a list of records for transport.
func FromRecords(recs []*models.VerificationRecord) VerificationListResponse {
	out := make([]VerificationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return VerificationListResponse{Verifications: out, Total: len(out)}
}
