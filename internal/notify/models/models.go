package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a notification template.
type Kind string

const (
	KindOTP                Kind = "otp"
	KindAppealCreated      Kind = "appeal_created"
	KindAppealResolved     Kind = "appeal_resolved"
	KindVerificationReport Kind = "verification_report"
	KindWelcome            Kind = "welcome"
)

func (k Kind) String() string { return string(k) }

// Notification is a request to tell recipients about an event. Data holds the
// kind-specific payload (one of the *Data types below).
type Notification struct {
	Kind Kind
	To   []string
	Data any
}

// OTPData is the payload for KindOTP.
type OTPData struct {
	Code          string
	ExpiryMinutes int
}

// AppealCreatedData is the payload for KindAppealCreated.
type AppealCreatedData struct {
	AppealID         string
	VerificationID   string
	EmployeeID       string
	VerifierCompany  string
	VerifierEmail    string
	Comments         string
	MismatchedFields []string
	DocumentURL      string
}

// AppealResolvedData is the payload for KindAppealResolved.
type AppealResolvedData struct {
	AppealID   string
	EmployeeID string
	Status     string
	HRResponse string
}

// VerificationReportData is the payload for KindVerificationReport.
type VerificationReportData struct {
	VerificationID string
	EmployeeID     string
	EmployeeName   string
	OverallStatus  string
	MatchScore     int
	MatchedFields  int
	TotalFields    int
}

// WelcomeData is the payload for KindWelcome.
type WelcomeData struct {
	CompanyName string
	DisplayName string
}

// Email is a rendered message ready for a provider.
type Email struct {
	To          []string
	FromAddress string
	FromName    string
	Subject     string
	HTML        string
	Text        string
}

// Result is the outcome of a dispatch.
type Result struct {
	Delivered bool   `json:"delivered"`
	Provider  string `json:"provider"`
	MessageID string `json:"messageId,omitempty"`
}

// Delivery statuses recorded per attempt.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// EmailLog records one provider attempt.
type EmailLog struct {
	ID             uuid.UUID `json:"id"`
	Provider       string    `json:"provider"`
	EmailType      Kind      `json:"emailType"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	MessageID      string    `json:"messageId,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ProviderStats aggregates attempts for one provider over a window.
type ProviderStats struct {
	Provider          string  `json:"provider"`
	Total             int     `json:"total"`
	Success           int     `json:"success"`
	Failed            int     `json:"failed"`
	AvgResponseTimeMs float64 `json:"avgResponseTime"`
	MinResponseTimeMs int64   `json:"minResponseTime"`
	MaxResponseTimeMs int64   `json:"maxResponseTime"`
	SuccessRate       float64 `json:"successRate"`
}
