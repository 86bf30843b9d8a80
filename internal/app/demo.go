package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_boost/internal/adapters/observability"
	"review_boost/internal/domain"
)

// PreferencesCacheKey is where the latest saved preferences blob lives.
const PreferencesCacheKey = "demoPreferences"

type DemoSettings struct {
	Defaults domain.DemoPreferences
	BaseURL  string // origin the shareable /demo/<slug> URL is built on
}

type LoadedPreferences struct {
	Preferences domain.DemoPreferences
	FromStore   bool
}

type CreatedDemoPage struct {
	Page          domain.DemoPage
	Path          string
	URL           string // clipboard text
	Notifications []domain.Notification
}

type DemoService struct {
	repo  domain.DemoRepository
	cache domain.Cache
	cfg   DemoSettings
	now   func() time.Time
	slugs *slugSource
}

func NewDemoService(r domain.DemoRepository, c domain.Cache, cfg DemoSettings) *DemoService {
	return &DemoService{repo: r, cache: c, cfg: cfg, now: time.Now, slugs: newSlugSource()}
}

// WithClock pins the clock used for slugs; used by tests.
func (s *DemoService) WithClock(now func() time.Time) *DemoService {
	s.now = now
	return s
}

var (
	noteMissingInfo  = domain.Alert("Missing information", "Please provide both restaurant name and Google Maps URL.")
	noteNameTooLong  = domain.Alert("Name too long", fmt.Sprintf("Restaurant name must be at most %d characters.", domain.MaxRestaurantNameLen))
	notePrefsSaved   = domain.Info("Preferences saved!", "Your demo has been customized successfully.")
	notePrefsFailed  = domain.Alert("Error", "Failed to save preferences. Please try again.")
	noteMissingPrefs = domain.Alert("Missing preferences", "Please set your restaurant preferences first.")
	notePageCreated  = domain.Info("Review page created!", "The URL has been copied to your clipboard.")
	notePageFailed   = domain.Alert("Error", "Failed to create review page. Please try again.")
)

var errNameTooLong = fmt.Errorf("%w: restaurant name exceeds %d characters", domain.ErrValidation, domain.MaxRestaurantNameLen)

// LoadPreferences returns the most recently saved preferences, falling back
// to the configured defaults when none exist or the store is unreachable.
func (s *DemoService) LoadPreferences(ctx context.Context) LoadedPreferences {
	p, err := s.repo.LatestPreferences(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Msg("load demo preferences failed; using defaults")
		}
		return LoadedPreferences{Preferences: s.cfg.Defaults}
	}
	s.remember(ctx, p)
	return LoadedPreferences{Preferences: p, FromStore: true}
}

// SavePreferences appends a new preferences row; the previous rows are kept.
func (s *DemoService) SavePreferences(ctx context.Context, p domain.DemoPreferences) ([]domain.Notification, error) {
	if !p.Complete() {
		return []domain.Notification{noteMissingInfo}, fmt.Errorf("%w: restaurant name and maps url are required", domain.ErrValidation)
	}
	if p.NameTooLong() {
		return []domain.Notification{noteNameTooLong}, errNameTooLong
	}
	if err := s.repo.InsertPreferences(ctx, p); err != nil {
		log.Error().Err(err).Str("restaurant", p.RestaurantName).Msg("save demo preferences failed")
		observability.ObserveFlow("demo", "preferences_error")
		return []domain.Notification{notePrefsFailed}, asTransport(err)
	}
	s.remember(ctx, p)
	observability.ObserveFlow("demo", "preferences_saved")
	return []domain.Notification{notePrefsSaved}, nil
}

// CreateDemoPage mints a slug and stores a demo page for p. When p is nil the
// cached preferences are used.
func (s *DemoService) CreateDemoPage(ctx context.Context, p *domain.DemoPreferences) (CreatedDemoPage, error) {
	if p == nil {
		var cached domain.DemoPreferences
		ok, err := s.cache.Get(ctx, PreferencesCacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Msg("read cached demo preferences failed")
		}
		if ok && err == nil {
			p = &cached
		}
	}
	if p == nil || !p.Complete() {
		return CreatedDemoPage{Notifications: []domain.Notification{noteMissingPrefs}},
			fmt.Errorf("%w: demo preferences are not set", domain.ErrValidation)
	}
	if p.NameTooLong() {
		return CreatedDemoPage{Notifications: []domain.Notification{noteNameTooLong}}, errNameTooLong
	}

	page := domain.DemoPage{
		RestaurantName: p.RestaurantName,
		GoogleMapsURL:  p.GoogleMapsURL,
		Slug:           s.slugs.slug(p.RestaurantName, s.now()),
	}
	if p.ContactEmail != "" {
		email := p.ContactEmail
		page.ContactEmail = &email
	}

	created, err := s.repo.InsertDemoPage(ctx, page)
	if err != nil {
		ev := log.Error().Err(err).Str("slug", page.Slug)
		if errors.Is(err, domain.ErrConflict) {
			ev = ev.Bool("slug_collision", true)
		}
		ev.Msg("create demo page failed")
		observability.ObserveFlow("demo", "page_error")
		return CreatedDemoPage{Notifications: []domain.Notification{notePageFailed}}, asTransport(err)
	}

	path := "/demo/" + created.Slug
	observability.ObserveFlow("demo", "page_created")
	log.Info().Str("slug", created.Slug).Str("restaurant", created.RestaurantName).Msg("demo page created")
	return CreatedDemoPage{
		Page:          created,
		Path:          path,
		URL:           strings.TrimRight(s.cfg.BaseURL, "/") + path,
		Notifications: []domain.Notification{notePageCreated},
	}, nil
}

// remember writes p through to the preference cache; failures only log.
func (s *DemoService) remember(ctx context.Context, p domain.DemoPreferences) {
	if err := s.cache.Set(ctx, PreferencesCacheKey, p, 0); err != nil {
		log.Warn().Err(err).Msg("cache demo preferences failed")
	}
}
