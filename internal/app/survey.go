package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"review_boost/internal/domain"
)

// LogSurveyLauncher records the survey request; the call itself is placed by
// the telephony side that tails these logs.
type LogSurveyLauncher struct{}

func (LogSurveyLauncher) LaunchSurvey(ctx context.Context, d domain.ReviewDraft) error {
	log.Info().
		Str("draft", d.ID).
		Str("business", d.BusinessName).
		Int("review_len", len(d.Text)).
		Msg("ai survey requested")
	return nil
}
