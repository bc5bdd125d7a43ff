package memory

import (
	"context"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

// Markers live outside the transactional snapshot so a rolled back
// submission cannot erase a claim held by a concurrent one.
type submissionMarkerRepository struct {
	store *Store
}

func NewSubmissionMarkerRepository(s *Store) leave.SubmissionMarkerRepository {
	return &submissionMarkerRepository{store: s}
}

func (r *submissionMarkerRepository) Claim(_ context.Context, key string, expiresAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if exp, ok := r.store.markers[key]; ok && exp.After(r.store.now()) {
		return false, nil
	}
	r.store.markers[key] = expiresAt
	return true, nil
}

func (r *submissionMarkerRepository) Release(_ context.Context, key string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.markers, key)
	return nil
}

func (r *submissionMarkerRepository) PurgeExpired(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	now := r.store.now()
	for k, exp := range r.store.markers {
		if !exp.After(now) {
			delete(r.store.markers, k)
			n++
		}
	}
	return n, nil
}
