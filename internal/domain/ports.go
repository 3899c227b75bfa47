package domain

import (
	"context"
	"encoding/json"
)

// SnapshotBackend is the durable substrate for the snapshot document. It
// deals only in opaque bytes; the codec and the fail-open policy live in the
// store above it. Write must be atomic enough that a concurrent Read never
// observes a partial document.
type SnapshotBackend interface {
	Read(ctx context.Context) (data []byte, found bool, err error)
	Write(ctx context.Context, data []byte) error
}

// ProfileClient is the upstream Business Profile API boundary. ListReviews is
// the fetcher the merge cycle depends on; the rest back the gated admin
// pass-throughs and the optional location enrichment.
type ProfileClient interface {
	ListReviews(ctx context.Context, accountID, locationID string) ([]Review, error)
	ListAccounts(ctx context.Context) (json.RawMessage, error)
	ListLocations(ctx context.Context, accountID string) (json.RawMessage, error)
	GetLocation(ctx context.Context, accountID, locationID string) (Location, error)
}
