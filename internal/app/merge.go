package app

import (
	"sort"
	"time"

	"gbp_reviews/internal/domain"
)

// Merge reconciles the stored review set with a freshly fetched one.
//
// Current records are indexed by review id; every incoming record with a
// non-empty id is inserted or overwrites the stored entry (incoming always
// wins, which is how edits are captured). Stored records whose ids are absent
// from the incoming list are kept untouched: a review removed upstream never
// disappears here. Records without an id cannot be tracked and are dropped.
//
// The result is sorted by create time, newest first. Records with equal or
// unparseable create times keep a stable relative order.
func Merge(current, incoming []domain.Review) []domain.Review {
	merged := make([]domain.Review, 0, len(current)+len(incoming))
	index := make(map[string]int, len(current)+len(incoming))

	for _, rv := range current {
		if rv.ReviewID == "" {
			continue
		}
		if _, ok := index[rv.ReviewID]; ok {
			// a stored duplicate would violate the unique-id invariant;
			// collapse to the first occurrence
			continue
		}
		index[rv.ReviewID] = len(merged)
		merged = append(merged, rv)
	}

	for _, rv := range incoming {
		if rv.ReviewID == "" {
			continue
		}
		if at, ok := index[rv.ReviewID]; ok {
			merged[at] = rv
			continue
		}
		index[rv.ReviewID] = len(merged)
		merged = append(merged, rv)
	}

	keys := make([]time.Time, len(merged))
	for i, rv := range merged {
		keys[i] = rv.CreatedAt()
	}
	sort.Stable(byCreateTimeDesc{reviews: merged, keys: keys})
	return merged
}

type byCreateTimeDesc struct {
	reviews []domain.Review
	keys    []time.Time
}

func (s byCreateTimeDesc) Len() int           { return len(s.reviews) }
func (s byCreateTimeDesc) Less(i, j int) bool { return s.keys[i].After(s.keys[j]) }
func (s byCreateTimeDesc) Swap(i, j int) {
	s.reviews[i], s.reviews[j] = s.reviews[j], s.reviews[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
