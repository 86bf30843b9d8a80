package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "review_boost/internal/adapters/http_server"
	"review_boost/internal/app"
	"review_boost/internal/domain"
)

// ---- fakes ----

type stubRefiner struct {
	resp domain.RefineResponse
	err  error
}

func (s stubRefiner) Refine(ctx context.Context, req domain.RefineRequest) (domain.RefineResponse, error) {
	return s.resp, s.err
}

type memReviews struct {
	mu   sync.Mutex
	rows []domain.SubmittedReview
}

func (m *memReviews) InsertReview(ctx context.Context, r domain.SubmittedReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, r)
	return nil
}

type memDemo struct {
	prefs []domain.DemoPreferences
	pages []domain.DemoPage
}

func (m *memDemo) InsertPreferences(ctx context.Context, p domain.DemoPreferences) error {
	m.prefs = append(m.prefs, p)
	return nil
}

func (m *memDemo) LatestPreferences(ctx context.Context) (domain.DemoPreferences, error) {
	if len(m.prefs) == 0 {
		return domain.DemoPreferences{}, domain.ErrNotFound
	}
	return m.prefs[len(m.prefs)-1], nil
}

func (m *memDemo) InsertDemoPage(ctx context.Context, p domain.DemoPage) (domain.DemoPage, error) {
	p.ID = int64(len(m.pages) + 1)
	m.pages = append(m.pages, p)
	return p, nil
}

func (m *memDemo) GetDemoPage(ctx context.Context, slug string) (domain.DemoPage, error) {
	for _, p := range m.pages {
		if p.Slug == slug {
			return p, nil
		}
	}
	return domain.DemoPage{}, domain.ErrNotFound
}

type memCache struct{ m map[string][]byte }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.m[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.m, key)
	return nil
}

type noSurvey struct{}

func (noSurvey) LaunchSurvey(ctx context.Context, d domain.ReviewDraft) error { return nil }

// ---- helpers ----

type env struct {
	ts      *httptest.Server
	reviews *memReviews
}

func newEnv(t *testing.T, rf domain.Refiner) env {
	t.Helper()
	reviews := &memReviews{}
	demo := &memDemo{}
	cache := &memCache{m: map[string][]byte{}}

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{
		Reviews: app.NewReviewService(app.NewDraftRegistry(), rf, reviews, noSurvey{}, app.ReviewSettings{
			BusinessName:  "The Local Kitchen & Bar",
			ReviewSiteURL: "https://maps.example/review",
		}),
		Demo: app.NewDemoService(demo, cache, app.DemoSettings{
			Defaults: domain.DemoPreferences{RestaurantName: "The Local Kitchen & Bar", GoogleMapsURL: "https://maps.google.com"},
			BaseURL:  "https://demo.example",
		}),
		Q: app.NewQueryService(demo, cache, time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return env{ts: ts, reviews: reviews}
}

func do(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type draftOut struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	State            string   `json:"state"`
	ComplaintFlagged bool     `json:"complaint_flagged"`
	ReceiptLines     []string `json:"receipt_lines"`
	UniqueCode       string   `json:"unique_code"`
}

type noteOut struct {
	Title   string `json:"title"`
	Variant string `json:"variant"`
}

type actionOut struct {
	Draft         draftOut  `json:"draft"`
	Notifications []noteOut `json:"notifications"`
}

// ---- tests ----

func TestReviewFlow_RefineSubmitShare(t *testing.T) {
	e := newEnv(t, stubRefiner{resp: domain.RefineResponse{RefinedReview: "The pasta was superb and the staff were friendly."}})

	var d draftOut
	resp := do(t, http.MethodPost, e.ts.URL+"/v1/drafts", "", &d)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "empty", d.State)

	resp = do(t, http.MethodPut, e.ts.URL+"/v1/drafts/"+d.ID+"/text", `{"text":"pasta good staff nice"}`, &d)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "drafting", d.State)

	var a actionOut
	resp = do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/refine", "", &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "refined", a.Draft.State)
	assert.Equal(t, "The pasta was superb and the staff were friendly.", a.Draft.Text)
	require.Len(t, a.Notifications, 1)
	assert.Equal(t, "Review created!", a.Notifications[0].Title)

	resp = do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/submit", "", &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "submitted", a.Draft.State)
	assert.Len(t, a.Draft.UniqueCode, app.CodeLength)
	require.Len(t, e.reviews.rows, 1)
	assert.Equal(t, a.Draft.UniqueCode, e.reviews.rows[0].UniqueCode)

	var share struct {
		ClipboardText string `json:"clipboard_text"`
		OpenURL       string `json:"open_url"`
	}
	resp = do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/share", "", &share)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, a.Draft.Text, share.ClipboardText)
	assert.Equal(t, "https://maps.example/review", share.OpenURL)

	// submitted drafts are read-only
	resp = do(t, http.MethodPut, e.ts.URL+"/v1/drafts/"+d.ID+"/text", `{"text":"again"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRefine_EmptyTextIsUnprocessable(t *testing.T) {
	e := newEnv(t, stubRefiner{})
	var d draftOut
	do(t, http.MethodPost, e.ts.URL+"/v1/drafts", `{}`, &d)

	var p struct {
		Status        int       `json:"status"`
		Notifications []noteOut `json:"notifications"`
	}
	resp := do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/refine", "", &p)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	require.Len(t, p.Notifications, 1)
	assert.Equal(t, "Review required", p.Notifications[0].Title)
	assert.Equal(t, "destructive", p.Notifications[0].Variant)
}

func TestRefine_TransportFailureIsBadGateway(t *testing.T) {
	e := newEnv(t, stubRefiner{err: errors.New("dial tcp: connection refused")})
	var d draftOut
	do(t, http.MethodPost, e.ts.URL+"/v1/drafts", "", &d)
	do(t, http.MethodPut, e.ts.URL+"/v1/drafts/"+d.ID+"/text", `{"text":"food was cold"}`, nil)

	resp := do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/refine", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	do(t, http.MethodGet, e.ts.URL+"/v1/drafts/"+d.ID, "", &d)
	assert.Equal(t, "drafting", d.State)
	assert.Equal(t, "food was cold", d.Text)
}

func TestSubmit_BeforeRefineIsConflict(t *testing.T) {
	e := newEnv(t, stubRefiner{})
	var d draftOut
	do(t, http.MethodPost, e.ts.URL+"/v1/drafts", "", &d)
	do(t, http.MethodPut, e.ts.URL+"/v1/drafts/"+d.ID+"/text", `{"text":"nice"}`, nil)

	resp := do(t, http.MethodPost, e.ts.URL+"/v1/drafts/"+d.ID+"/submit", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Empty(t, e.reviews.rows)
}

func TestReceipt_AttachAndRender(t *testing.T) {
	e := newEnv(t, stubRefiner{})
	var d draftOut
	do(t, http.MethodPost, e.ts.URL+"/v1/drafts", "", &d)

	resp := do(t, http.MethodGet, e.ts.URL+"/v1/drafts/"+d.ID+"/receipt", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := `{"analysis":{"total_amount":42.5,"items":[{"name":"Burger","price":18},{"name":"Fries","price":6.5}],"tax_amount":0},"photo_url":"https://cdn.example/r.jpg"}`
	resp = do(t, http.MethodPut, e.ts.URL+"/v1/drafts/"+d.ID+"/receipt", body, &d)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Receipt Analysis", "Total Amount: $42.5", "Items:", "  - Burger - $18", "  - Fries - $6.5"}, d.ReceiptLines)

	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+"/v1/drafts/"+d.ID+"/receipt", nil)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.True(t, strings.HasPrefix(raw.Header.Get("Content-Type"), "text/plain"))
}

func TestDraft_UnknownIsNotFound(t *testing.T) {
	e := newEnv(t, stubRefiner{})
	resp := do(t, http.MethodGet, e.ts.URL+"/v1/drafts/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodDelete, e.ts.URL+"/v1/drafts/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDemo_PreferencesAndPages(t *testing.T) {
	e := newEnv(t, stubRefiner{})

	var lp struct {
		Preferences domain.DemoPreferences `json:"preferences"`
		FromStore   bool                   `json:"from_store"`
	}
	do(t, http.MethodGet, e.ts.URL+"/v1/demo/preferences", "", &lp)
	assert.False(t, lp.FromStore)
	assert.Equal(t, "The Local Kitchen & Bar", lp.Preferences.RestaurantName)

	resp := do(t, http.MethodPut, e.ts.URL+"/v1/demo/preferences", `{"restaurantName":"","googleMapsUrl":"x"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, http.MethodPut, e.ts.URL+"/v1/demo/preferences", `{"restaurantName":"Bistro Nova","googleMapsUrl":"https://maps/nova"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	do(t, http.MethodGet, e.ts.URL+"/v1/demo/preferences", "", &lp)
	assert.True(t, lp.FromStore)
	assert.Equal(t, "Bistro Nova", lp.Preferences.RestaurantName)

	// empty body falls back to the cached preferences
	var created struct {
		Page struct {
			Slug string `json:"slug"`
		} `json:"page"`
		Path          string `json:"path"`
		URL           string `json:"url"`
		ClipboardText string `json:"clipboard_text"`
	}
	resp = do(t, http.MethodPost, e.ts.URL+"/v1/demo/pages", "", &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Regexp(t, `^bistro-nova-\d+-[a-z0-9]{6}$`, created.Page.Slug)
	assert.Equal(t, "/demo/"+created.Page.Slug, created.Path)
	assert.Equal(t, "https://demo.example"+created.Path, created.URL)
	assert.Equal(t, created.URL, created.ClipboardText)

	first := do(t, http.MethodGet, e.ts.URL+"/v1/demo/pages/"+created.Page.Slug, "", nil)
	require.Equal(t, http.StatusOK, first.StatusCode)
	etag := first.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+"/v1/demo/pages/"+created.Page.Slug, nil)
	req.Header.Set("If-None-Match", etag)
	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer again.Body.Close()
	assert.Equal(t, http.StatusNotModified, again.StatusCode)

	resp = do(t, http.MethodGet, e.ts.URL+"/v1/demo/pages/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
