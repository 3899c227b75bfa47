package storage

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"gbp_reviews/internal/adapters/observability"
	"gbp_reviews/internal/domain"
)

// Store owns the durable snapshot document on top of a byte-level backend.
//
// Load is fail-open: a missing, unreadable or corrupt document yields an
// empty snapshot and never an error, since bad state on disk must not block
// serving fresh data. Save is best-effort: failures are logged and swallowed
// so a bad write cannot fail the request being served; losing one write is
// acceptable, corrupting the document is not (atomicity is the backend's
// contract).
type Store struct {
	backend domain.SnapshotBackend
}

func New(backend domain.SnapshotBackend) *Store { return &Store{backend: backend} }

// Load reads the current snapshot, falling back to an empty one.
func (s *Store) Load(ctx context.Context) domain.Snapshot {
	data, found, err := s.backend.Read(ctx)
	if err != nil {
		observability.ObserveStore("read_error")
		log.Warn().Err(err).Msg("snapshot read failed, starting from empty")
		return domain.Snapshot{}
	}
	if !found {
		observability.ObserveStore("read_miss")
		return domain.Snapshot{}
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		observability.ObserveStore("decode_error")
		log.Warn().Err(err).Int("bytes", len(data)).Msg("snapshot document corrupt, starting from empty")
		return domain.Snapshot{}
	}
	observability.ObserveStore("read")
	return snap
}

// Save persists the snapshot. Errors are reported through logs and metrics
// only; the in-memory result already derived for the caller stands.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) {
	if snap.Reviews == nil {
		snap.Reviews = []domain.Review{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		observability.ObserveStore("encode_error")
		log.Error().Err(err).Msg("snapshot encode failed, keeping previous document")
		return
	}
	if err := s.backend.Write(ctx, data); err != nil {
		observability.ObserveStore("write_error")
		log.Error().Err(err).Int("reviews", len(snap.Reviews)).Msg("snapshot write failed, serving in-memory result")
		return
	}
	observability.ObserveStore("write")
	observability.SetSnapshotReviews(len(snap.Reviews))
}
