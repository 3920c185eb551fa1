package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Ensure FragmentStore implements the interface.
var _ driven.FragmentStore = (*FragmentStore)(nil)

// FragmentStore is an in-memory implementation of driven.FragmentStore.
// Fragments are returned in first-insertion order.
type FragmentStore struct {
	mu        sync.RWMutex
	fragments map[string]domain.Fragment
	order     map[string]int
	next      int
	model     domain.ModelInfo
}

// NewFragmentStore creates a new in-memory fragment store.
func NewFragmentStore() *FragmentStore {
	return &FragmentStore{
		fragments: make(map[string]domain.Fragment),
		order:     make(map[string]int),
	}
}

// Upsert stores or replaces fragments by ID. The batch is validated before
// any fragment is written.
func (s *FragmentStore) Upsert(_ context.Context, fragments []domain.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(fragments); err != nil {
		return err
	}
	s.putLocked(fragments)
	return nil
}

// ReplaceDocument swaps a document's fragments under a single lock.
// Validation runs first, so a rejected set leaves the old fragments.
func (s *FragmentStore) ReplaceDocument(_ context.Context, documentID string, fragments []domain.Fragment) error {
	for i := range fragments {
		if fragments[i].DocumentID != documentID {
			return fmt.Errorf("%w: fragment %s belongs to %s, not %s",
				domain.ErrInvalidInput, fragments[i].ID, fragments[i].DocumentID, documentID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(fragments) > 0 {
		if err := s.validateLocked(fragments); err != nil {
			return err
		}
	}
	s.deleteDocumentLocked(documentID)
	s.putLocked(fragments)
	return nil
}

// Exists reports whether any fragment for the document is stored.
func (s *FragmentStore) Exists(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.fragments {
		if f.DocumentID == documentID {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored fragments.
func (s *FragmentStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments), nil
}

// All returns fragments matching the filter in insertion order.
func (s *FragmentStore) All(_ context.Context, filter domain.Filter) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Fragment, 0, len(s.fragments))
	for _, f := range s.fragments {
		if filter.Matches(&f) {
			result = append(result, cloneFragment(f))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return s.order[result[i].ID] < s.order[result[j].ID]
	})
	return result, nil
}

// Reset deletes all fragments and the pinned model.
func (s *FragmentStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments = make(map[string]domain.Fragment)
	s.order = make(map[string]int)
	s.next = 0
	s.model = domain.ModelInfo{}
	return nil
}

// DeleteDocument removes all fragments of a document.
func (s *FragmentStore) DeleteDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteDocumentLocked(documentID), nil
}

// EmbeddingModel returns the pinned model.
func (s *FragmentStore) EmbeddingModel(_ context.Context) (domain.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, nil
}

// PinEmbeddingModel records the model, rejecting a different one.
func (s *FragmentStore) PinEmbeddingModel(_ context.Context, model domain.ModelInfo) error {
	if model.Name == "" || model.Dimensions <= 0 {
		return fmt.Errorf("%w: model name and dimensions are required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := s.model.Merge(model)
	if err != nil {
		return err
	}
	s.model = merged
	return nil
}

func (s *FragmentStore) validateLocked(fragments []domain.Fragment) error {
	dims := s.dimensionsLocked()
	if dims == 0 {
		dims = len(fragments[0].Embedding)
	}
	for i := range fragments {
		f := &fragments[i]
		if f.ID == "" || strings.TrimSpace(f.Text) == "" || len(f.Embedding) == 0 {
			return fmt.Errorf("%w: fragment %d is incomplete", domain.ErrInvalidInput, i)
		}
		if len(f.Embedding) != dims {
			return fmt.Errorf("%w: fragment %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, f.ID, len(f.Embedding), dims)
		}
	}
	return nil
}

func (s *FragmentStore) putLocked(fragments []domain.Fragment) {
	for i := range fragments {
		f := cloneFragment(fragments[i])
		if _, ok := s.order[f.ID]; !ok {
			s.order[f.ID] = s.next
			s.next++
		}
		s.fragments[f.ID] = f
	}
}

func (s *FragmentStore) deleteDocumentLocked(documentID string) int {
	removed := 0
	for id, f := range s.fragments {
		if f.DocumentID == documentID {
			delete(s.fragments, id)
			delete(s.order, id)
			removed++
		}
	}
	return removed
}

// dimensionsLocked returns the required embedding length, 0 if unconstrained.
func (s *FragmentStore) dimensionsLocked() int {
	if s.model.Dimensions > 0 {
		return s.model.Dimensions
	}
	for _, f := range s.fragments {
		return len(f.Embedding)
	}
	return 0
}

// cloneFragment copies the slices and pointers so callers cannot mutate
// stored state.
func cloneFragment(f domain.Fragment) domain.Fragment {
	if f.Embedding != nil {
		f.Embedding = append([]float32(nil), f.Embedding...)
	}
	if f.TimeRange != nil {
		tr := *f.TimeRange
		f.TimeRange = &tr
	}
	return f
}
