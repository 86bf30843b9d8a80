package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"review_boost/internal/domain"
)

type QueryService struct {
	repo     domain.DemoRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.DemoRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetDemoPage(ctx context.Context, slug string) (domain.DemoPage, error) {
	key := fmt.Sprintf("demo:%s", slug)
	var p domain.DemoPage
	ok, err := s.cache.Get(ctx, key, &p)
	if ok && err == nil {
		return p, nil
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cached demo page unreadable; reading store")
	}
	p, err = s.repo.GetDemoPage(ctx, slug)
	if err != nil {
		return domain.DemoPage{}, err
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}
