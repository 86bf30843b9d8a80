package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"review_boost/internal/domain"
)

// ---- fakes ----

type fakeRefiner struct {
	mu   sync.Mutex
	resp domain.RefineResponse
	err  error
	got  []domain.RefineRequest

	// when set, Refine signals entered and blocks until release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRefiner) Refine(ctx context.Context, req domain.RefineRequest) (domain.RefineResponse, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return f.resp, f.err
}

func (f *fakeRefiner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type fakeReviewRepo struct {
	mu       sync.Mutex
	attempts []domain.SubmittedReview
	rows     []domain.SubmittedReview
	err      error
}

func (f *fakeReviewRepo) InsertReview(ctx context.Context, r domain.SubmittedReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, r)
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, r)
	return nil
}

type fakeSurvey struct {
	calls int
	err   error
}

func (f *fakeSurvey) LaunchSurvey(ctx context.Context, d domain.ReviewDraft) error {
	f.calls++
	return f.err
}

type fakeDemoRepo struct {
	prefs      []domain.DemoPreferences
	pages      []domain.DemoPage
	latestErr  error
	insertErr  error
	pageErr    error
	pageReads  int
	storeCalls int
}

func (f *fakeDemoRepo) InsertPreferences(ctx context.Context, p domain.DemoPreferences) error {
	f.storeCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.prefs = append(f.prefs, p)
	return nil
}

func (f *fakeDemoRepo) LatestPreferences(ctx context.Context) (domain.DemoPreferences, error) {
	if f.latestErr != nil {
		return domain.DemoPreferences{}, f.latestErr
	}
	if len(f.prefs) == 0 {
		return domain.DemoPreferences{}, domain.ErrNotFound
	}
	return f.prefs[len(f.prefs)-1], nil
}

func (f *fakeDemoRepo) InsertDemoPage(ctx context.Context, p domain.DemoPage) (domain.DemoPage, error) {
	f.storeCalls++
	if f.pageErr != nil {
		return domain.DemoPage{}, f.pageErr
	}
	p.ID = int64(len(f.pages) + 1)
	f.pages = append(f.pages, p)
	return p, nil
}

func (f *fakeDemoRepo) GetDemoPage(ctx context.Context, slug string) (domain.DemoPage, error) {
	f.pageReads++
	for _, p := range f.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.DemoPage{}, domain.ErrNotFound
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
	err   error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.err != nil {
		return c.err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}
