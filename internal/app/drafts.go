package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"review_boost/internal/domain"
)

type draftEntry struct {
	d       domain.ReviewDraft
	touched time.Time
}

// DraftRegistry holds the in-progress drafts of every session. Callbacks
// passed to Update run under the registry lock and must not block.
type DraftRegistry struct {
	mu     sync.Mutex
	drafts map[string]*draftEntry
	now    func() time.Time
}

func NewDraftRegistry() *DraftRegistry {
	return &DraftRegistry{drafts: map[string]*draftEntry{}, now: time.Now}
}

func (r *DraftRegistry) Create(businessName string) domain.ReviewDraft {
	d := domain.NewDraft(uuid.NewString(), businessName)
	r.mu.Lock()
	r.drafts[d.ID] = &draftEntry{d: d, touched: r.now()}
	r.mu.Unlock()
	return d
}

func (r *DraftRegistry) Get(id string) (domain.ReviewDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.drafts[id]
	if !ok {
		return domain.ReviewDraft{}, domain.ErrNotFound
	}
	return e.d, nil
}

// Update applies fn to the stored draft and returns the resulting copy. The
// draft is updated even when fn returns an error, so transitions that revert
// state on failure are kept.
func (r *DraftRegistry) Update(id string, fn func(d *domain.ReviewDraft) error) (domain.ReviewDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.drafts[id]
	if !ok {
		return domain.ReviewDraft{}, domain.ErrNotFound
	}
	err := fn(&e.d)
	e.touched = r.now()
	return e.d, err
}

func (r *DraftRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.drafts, id)
	return nil
}

// Sweep drops drafts idle for longer than ttl. Drafts with a request in
// flight are kept. Returns the number removed.
func (r *DraftRegistry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.drafts {
		if e.d.State.InFlight() || e.touched.After(cutoff) {
			continue
		}
		delete(r.drafts, id)
		n++
	}
	return n
}

func (r *DraftRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
