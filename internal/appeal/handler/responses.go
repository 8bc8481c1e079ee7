package handler

import (
	"time"

	"empverify/internal/appeal/models"
	"empverify/internal/documents"
	"empverify/internal/verification/comparator"
)

// AppealCreatedResponse is returned from POST /appeals.
type AppealCreatedResponse struct {
	AppealID              string    `json:"appealId"`
	VerificationID        string    `json:"verificationId"`
	Status                string    `json:"status"`
	HasSupportingDocument bool      `json:"hasSupportingDocument"`
	CreatedAt             time.Time `json:"createdAt"`
}

// VerifierInfoResponse identifies the filing verifier.
type VerifierInfoResponse struct {
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

// AppealSummaryResponse is one row of an appeal listing.
type AppealSummaryResponse struct {
	AppealID              string                `json:"appealId"`
	VerificationID        string                `json:"verificationId"`
	EmployeeID            string                `json:"employeeId"`
	VerifierInfo          *VerifierInfoResponse `json:"verifierInfo"`
	Status                string                `json:"status"`
	MismatchedFields      int                   `json:"mismatchedFields"`
	HasSupportingDocument bool                  `json:"hasSupportingDocument"`
	HRResponse            string                `json:"hrResponse,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	ReviewedAt            *time.Time            `json:"reviewedAt"`
}

// PaginationResponse carries paging metadata.
type PaginationResponse struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// AppealListResponse is returned from GET /appeals.
type AppealListResponse struct {
	Appeals    []AppealSummaryResponse `json:"appeals"`
	Pagination PaginationResponse      `json:"pagination"`
}

// MyAppealsResponse is returned from GET /appeals/mine.
type MyAppealsResponse struct {
	Appeals []AppealSummaryResponse `json:"appeals"`
}

// VerificationInfoResponse is the disputed verification.
type VerificationInfoResponse struct {
	VerificationID    string              `json:"verificationId"`
	ComparisonResults []comparator.Result `json:"comparisonResults"`
	OverallStatus     string              `json:"overallStatus"`
	MatchScore        int                 `json:"matchScore"`
}

// AppealDetailResponse is the admin view of one appeal.
type AppealDetailResponse struct {
	AppealID           string                    `json:"appealId"`
	EmployeeID         string                    `json:"employeeId"`
	EmployeeName       string                    `json:"employeeName"`
	VerifierInfo       *VerifierInfoResponse     `json:"verifierInfo"`
	VerificationInfo   *VerificationInfoResponse `json:"verificationInfo"`
	Comments           string                    `json:"comments"`
	SupportingDocument *documents.Stored         `json:"supportingDocument"`
	MismatchedFields   []models.MismatchedField  `json:"mismatchedFields"`
	Status             string                    `json:"status"`
	HRResponse         string                    `json:"hrResponse"`
	ReviewedBy         *string                   `json:"reviewedBy"`
	ReviewedAt         *time.Time                `json:"reviewedAt"`
	CreatedAt          time.Time                 `json:"createdAt"`
}

// RespondResponse is returned after adjudication.
type RespondResponse struct {
	AppealID   string     `json:"appealId"`
	Status     string     `json:"status"`
	HRResponse string     `json:"hrResponse"`
	ReviewedAt *time.Time `json:"reviewedAt"`
}

func toVerifierInfo(v *models.VerifierInfo) *VerifierInfoResponse {
	if v == nil {
		return nil
	}
	return &VerifierInfoResponse{CompanyName: v.CompanyName, Email: v.Email}
}

func toSummary(a *models.Appeal, v *models.VerifierInfo) AppealSummaryResponse {
	return AppealSummaryResponse{
		AppealID:              a.ID.String(),
		VerificationID:        a.VerificationID.String(),
		EmployeeID:            a.EmployeeID.String(),
		VerifierInfo:          toVerifierInfo(v),
		Status:                a.Status.String(),
		MismatchedFields:      len(a.MismatchedFields),
		HasSupportingDocument: a.SupportingDocument != nil,
		HRResponse:            a.HRResponse,
		CreatedAt:             a.CreatedAt,
		ReviewedAt:            a.ReviewedAt,
	}
}

func fromPage(p *models.Page) AppealListResponse {
	out := make([]AppealSummaryResponse, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, toSummary(item.Appeal, item.Verifier))
	}
	return AppealListResponse{
		Appeals:    out,
		Pagination: PaginationResponse{Total: p.Total, Pages: p.Pages, Page: p.Page, Limit: p.Limit},
	}
}

func fromMine(appeals []*models.Appeal) MyAppealsResponse {
	out := make([]AppealSummaryResponse, 0, len(appeals))
	for _, a := range appeals {
		out = append(out, toSummary(a, nil))
	}
	return MyAppealsResponse{Appeals: out}
}

func fromDetail(d *models.Detail) AppealDetailResponse {
	a := d.Appeal
	resp := AppealDetailResponse{
		AppealID:           a.ID.String(),
		EmployeeID:         a.EmployeeID.String(),
		EmployeeName:       d.EmployeeName,
		VerifierInfo:       toVerifierInfo(d.Verifier),
		Comments:           a.Comments,
		SupportingDocument: a.SupportingDocument,
		MismatchedFields:   a.MismatchedFields,
		Status:             a.Status.String(),
		HRResponse:         a.HRResponse,
		ReviewedAt:         a.ReviewedAt,
		CreatedAt:          a.CreatedAt,
	}
	if a.ReviewedBy != nil {
		by := a.ReviewedBy.String()
		resp.ReviewedBy = &by
	}
	if v := d.Verification; v != nil {
		resp.VerificationInfo = &VerificationInfoResponse{
			VerificationID:    v.ID.String(),
			ComparisonResults: v.ComparisonResults,
			OverallStatus:     v.OverallStatus,
			MatchScore:        v.MatchScore,
		}
	}
	return resp
}
