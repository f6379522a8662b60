// Package vector provides an exact, in-memory vector store with sequential integer ids.
package vector

import (
	"fmt"
	"sort"
	"sync"
)

// Result is a single nearest-neighbour hit. Score is the inner product or the squared L2 distance.
type Result struct {
	ID    int
	Score float64
}

// Store holds fixed-dimension vectors in one contiguous arena and answers exact top-k queries.
// Ids are assigned 0, 1, 2, ... in insertion order and never reused.
// The store never normalizes; callers using MetricInnerProduct insert unit vectors.
type Store struct {
	dimension int
	metric    Metric
	data      []float32
	count     int
	mu        sync.RWMutex
}

// NewStore creates an empty store. A non-positive dimension or unsupported metric is a *ConfigError.
func NewStore(dimension int, metric Metric) (*Store, error) {
	if dimension <= 0 {
		return nil, &ConfigError{Field: "dimension", Reason: fmt.Sprintf("must be positive, got %d", dimension)}
	}
	if !metric.Valid() {
		return nil, &ConfigError{Field: "metric", Reason: fmt.Sprintf("unsupported metric %q", metric)}
	}
	return &Store{dimension: dimension, metric: metric}, nil
}

// Insert copies vec into the store and returns its id.
// A wrong-length or non-finite vector is rejected before any mutation.
func (s *Store) Insert(vec []float32) (int, error) {
	if err := CheckDimension(vec, s.dimension); err != nil {
		return 0, err
	}
	if err := CheckFinite(vec); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, vec...)
	id := s.count
	s.count++
	return id, nil
}

// Search returns the min(topK, Size()) best matches for query, best first.
// Inner product ranks highest score first, L2 lowest distance first; ties go to the lower id.
func (s *Store) Search(query []float32, topK int) ([]Result, error) {
	if err := CheckDimension(query, s.dimension); err != nil {
		return nil, err
	}
	if err := CheckFinite(query); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.count == 0 {
		return nil, ErrEmptyIndex
	}

	scores := make([]Result, s.count)
	for id := 0; id < s.count; id++ {
		scores[id] = Result{ID: id, Score: s.metric.score(query, s.vectorAt(id))}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return s.metric.better(scores[i].Score, scores[j].Score)
		}
		return scores[i].ID < scores[j].ID
	})
	if topK > len(scores) {
		topK = len(scores)
	}
	return scores[:topK:topK], nil
}

// vectorAt returns the arena slice for id. Caller holds s.mu.
func (s *Store) vectorAt(id int) []float32 {
	off := id * s.dimension
	return s.data[off : off+s.dimension]
}

// Size returns the number of stored vectors.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Dimension returns the fixed vector length.
func (s *Store) Dimension() int { return s.dimension }

// Metric returns the scoring metric.
func (s *Store) Metric() Metric { return s.metric }
