package service

import (
	"context"
	"fmt"
	"time"

	"empverify/internal/admin/types"
	notify "empverify/internal/notify/models"
	"empverify/internal/notify/providers"
	dErrors "empverify/pkg/domain-errors"
	"empverify/pkg/requestcontext"
)

const (
	DefaultEmailStatsDays = 7
	MaxEmailStatsDays     = 90
	recentEmailLogs       = 50

	// Each provider needs this many sends in the window before one is recommended.
	minSamplesForRecommendation = 10

	RecommendationInsufficient = "insufficient_data"
)

// EmailStats compares provider delivery over a window.
type EmailStats struct {
	Days           int                             `json:"days"`
	Period         string                          `json:"period"`
	Providers      []notify.ProviderStats          `json:"providers"`
	Comparison     map[string]notify.ProviderStats `json:"comparison"`
	Recommendation string                          `json:"recommendation"`
	RecentLogs     []*types.EmailLogEntry          `json:"recentLogs"`
}

// EmailStats aggregates email logs from the last days days.
func (s *Service) EmailStats(ctx context.Context, days int) (*EmailStats, error) {
	if s.emailLogs == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "Email statistics are not configured")
	}
	if days < 1 || days > MaxEmailStatsDays {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("days must be between 1 and %d", MaxEmailStatsDays))
	}

	since := requestcontext.Now(ctx).Add(-time.Duration(days) * 24 * time.Hour)
	stats, err := s.emailLogs.Stats(ctx, since)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to aggregate email stats",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch email statistics")
	}
	recent, err := s.emailLogs.Recent(ctx, recentEmailLogs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Failed to fetch email statistics")
	}

	comparison := map[string]notify.ProviderStats{
		providers.NameBrevo:    {Provider: providers.NameBrevo},
		providers.NameSendGrid: {Provider: providers.NameSendGrid},
	}
	for _, st := range stats {
		comparison[st.Provider] = st
	}

	return &EmailStats{
		Days:           days,
		Period:         fmt.Sprintf("Last %d days", days),
		Providers:      stats,
		Comparison:     comparison,
		Recommendation: recommend(comparison[providers.NameBrevo], comparison[providers.NameSendGrid]),
		RecentLogs:     recent,
	}, nil
}

// recommend favours the higher success rate, penalising 100 ms of average
// latency as one percentage point.
func recommend(brevo, sendgrid notify.ProviderStats) string {
	if brevo.Total < minSamplesForRecommendation || sendgrid.Total < minSamplesForRecommendation {
		return RecommendationInsufficient
	}
	brevoScore := brevo.SuccessRate - brevo.AvgResponseTimeMs/100
	sendgridScore := sendgrid.SuccessRate - sendgrid.AvgResponseTimeMs/100
	if brevoScore >= sendgridScore {
		return providers.NameBrevo
	}
	return providers.NameSendGrid
}
