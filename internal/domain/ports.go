package domain

import "context"

type ReviewRepository interface {
	InsertReview(ctx context.Context, r SubmittedReview) error
}

type DemoRepository interface {
	InsertPreferences(ctx context.Context, p DemoPreferences) error
	// LatestPreferences returns ErrNotFound when no row exists.
	LatestPreferences(ctx context.Context) (DemoPreferences, error)
	InsertDemoPage(ctx context.Context, p DemoPage) (DemoPage, error)
	GetDemoPage(ctx context.Context, slug string) (DemoPage, error)
}

type Refiner interface {
	Refine(ctx context.Context, req RefineRequest) (RefineResponse, error)
}

// SurveyLauncher starts the AI survey call offered on complaints.
type SurveyLauncher interface {
	LaunchSurvey(ctx context.Context, d ReviewDraft) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
