// Package selection keeps the user's shortlisted courses in memory and
// mirrors every change to the backend. Mutations are confirm-then-apply:
// the local list only changes after the API call succeeds, so the UI can
// never show a selection the server does not have.
package selection

import (
	"context"
	"sort"
	"sync"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/resources"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// Cache optionally persists a snapshot of the selection list so a
// restarted client can render something before the first Sync.
type Cache interface {
	SaveSelections(items []types.Selection) error
	LoadSelections() ([]types.Selection, error)
}

// Store is the client-side view of the user's selected courses.
type Store struct {
	mu    sync.Mutex
	api   *resources.SelectionsResource
	cache Cache
	items []types.Selection
}

// NewStore creates a Store backed by the given resource. cache may be nil.
func NewStore(api *resources.SelectionsResource, cache Cache) *Store {
	return &Store{api: api, cache: cache}
}

// Items returns a copy of the current selections, ordered by selection ID.
func (s *Store) Items() []types.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Selection, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the number of selected courses.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IsSelected reports whether the course is currently shortlisted.
func (s *Store) IsSelected(courseID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(courseID) >= 0
}

func (s *Store) findLocked(courseID int) int {
	for i := range s.items {
		if s.items[i].CourseID == courseID {
			return i
		}
	}
	return -1
}

// Add shortlists a course. If the course is already selected the existing
// selection is returned and no request is made.
func (s *Store) Add(ctx context.Context, courseID int) (*types.Selection, error) {
	s.mu.Lock()
	if i := s.findLocked(courseID); i >= 0 {
		existing := s.items[i]
		s.mu.Unlock()
		return &existing, nil
	}
	s.mu.Unlock()

	created, err := s.api.Create(ctx, courseID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// A concurrent Add may have landed first; keep the list duplicate-free.
	if i := s.findLocked(courseID); i < 0 {
		s.items = append(s.items, *created)
	}
	s.snapshotLocked()
	s.mu.Unlock()
	return created, nil
}

// Remove un-shortlists a course. Removing a course that is not selected
// is a no-op.
func (s *Store) Remove(ctx context.Context, courseID int) error {
	s.mu.Lock()
	i := s.findLocked(courseID)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	selectionID := s.items[i].ID
	s.mu.Unlock()

	if err := s.api.Delete(ctx, selectionID); err != nil {
		// The server already forgot it; drop our copy too.
		if !httpx.IsNotFoundError(err) {
			return err
		}
	}

	s.mu.Lock()
	if i := s.findLocked(courseID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.snapshotLocked()
	s.mu.Unlock()
	return nil
}

// Toggle flips a course's selection and reports whether it is selected
// afterwards.
func (s *Store) Toggle(ctx context.Context, courseID int) (bool, error) {
	if s.IsSelected(courseID) {
		if err := s.Remove(ctx, courseID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.Add(ctx, courseID); err != nil {
		return false, err
	}
	return true, nil
}

// Sync replaces the local list with the server's. An unauthenticated or
// never-initialized list (401/404) resolves to empty rather than erroring,
// so signed-out users simply see no selections.
func (s *Store) Sync(ctx context.Context) error {
	items, err := s.api.List(ctx)
	if err != nil {
		if httpx.IsAuthenticationError(err) || httpx.IsNotFoundError(err) {
			items = nil
		} else {
			return err
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	s.mu.Lock()
	s.items = items
	s.snapshotLocked()
	s.mu.Unlock()
	return nil
}

// Restore loads the cached snapshot into the store. It does nothing
// without a cache and never fails the caller: a missing snapshot just
// leaves the list empty until Sync.
func (s *Store) Restore() {
	if s.cache == nil {
		return
	}
	items, err := s.cache.LoadSelections()
	if err != nil || items == nil {
		return
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Clear empties the local list and snapshot, e.g. on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.snapshotLocked()
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() {
	if s.cache == nil {
		return
	}
	items := make([]types.Selection, len(s.items))
	copy(items, s.items)
	// Snapshot failures are not worth failing a confirmed mutation over.
	_ = s.cache.SaveSelections(items)
}
