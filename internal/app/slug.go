package app

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	CodeLength   = 8
	CodeAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// MaxSlugLen is the width of demo_pages.slug. A name of
	// domain.MaxRestaurantNameLen characters yields at most 276.
	MaxSlugLen = 280

	slugSuffixLen = 6
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug builds "<name>-<unixMillis>-<6 base36 chars>". The result is
// deterministic for a fixed now and rnd, but not guaranteed unique.
func GenerateSlug(name string, now time.Time, rnd *rand.Rand) string {
	suffix := make([]byte, slugSuffixLen)
	for i := range suffix {
		suffix[i] = base36[rnd.IntN(len(base36))]
	}
	base := nonAlnumRun.ReplaceAllString(strings.ToLower(name), "-")
	return fmt.Sprintf("%s-%d-%s", base, now.UnixMilli(), suffix)
}

// NewUniqueCode returns an 8-character share code from CodeAlphabet.
func NewUniqueCode() (string, error) {
	return gonanoid.Generate(CodeAlphabet, CodeLength)
}

// slugSource serialises access to a *rand.Rand, which is not safe for
// concurrent use.
type slugSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newSlugSource() *slugSource {
	return &slugSource{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (s *slugSource) slug(name string, now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GenerateSlug(name, now, s.rnd)
}
