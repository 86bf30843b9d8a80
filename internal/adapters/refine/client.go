// internal/adapters/refine/client.go
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"review_boost/internal/adapters/observability"
	"review_boost/internal/domain"
)

const endpoint = "refine-review"

// Client calls the hosted refine-review function. Requests are rate limited
// client-side and never retried; a failure needs a new user action.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("refine base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

func (c *Client) Refine(ctx context.Context, in domain.RefineRequest) (domain.RefineResponse, error) {
	var out domain.RefineResponse
	url := c.base + "/functions/v1/" + endpoint
	if err := c.post(ctx, url, in, &out); err != nil {
		return domain.RefineResponse{}, err
	}
	return out, nil
}

// post sends body as JSON and decodes a 2xx response into out. Every failure
// is reported as domain.ErrTransport.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", domain.ErrTransport, err)
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", domain.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-boost/1.0")
	req.Header.Set("X-Request-ID", reqID)
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("apikey", c.key)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("refine", endpoint, 0, time.Since(start))
		log.Warn().Err(err).Str("req_id", reqID).Str("err_type", observability.LabelErr(err)).Msg("refine request failed")
		return fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("refine", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 != 2 {
		// read a small error body for diagnostics
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Warn().Str("req_id", reqID).Int("status", resp.StatusCode).Msg("refine returned non-2xx")
		return fmt.Errorf("%w: bad status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	log.Debug().Str("req_id", reqID).Dur("took", time.Since(start)).Msg("refine ok")
	return nil
}
