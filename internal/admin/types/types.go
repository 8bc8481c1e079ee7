// Package types holds the read models admin views are built from. Adapters map
// the owning modules' records into these so admin never imports their stores.
package types

import (
	"time"

	"empverify/pkg/domain"
)

// VerifierSummary identifies who submitted a verification.
type VerifierSummary struct {
	ID          domain.VerifierID
	Email       string
	CompanyName string
	IsActive    bool
	LastLoginAt *time.Time
}

// EmailLogEntry is one provider attempt with the recipient masked.
type EmailLogEntry struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	EmailType      string    `json:"emailType"`
	Recipient      string    `json:"recipient"`
	Status         string    `json:"status"`
	ResponseTimeMs int64     `json:"responseTime"`
	CreatedAt      time.Time `json:"createdAt"`
}
