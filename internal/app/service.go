package app

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"gbp_reviews/internal/domain"
	"gbp_reviews/internal/storage"
)

// fetchTimeout bounds one upstream reviews fetch including its retries;
// enrichTimeout bounds the optional location lookup so presentation fields
// cannot hold a response hostage.
const (
	fetchTimeout  = 20 * time.Second
	enrichTimeout = 5 * time.Second
)

// CacheInfo describes the snapshot state after a cycle.
type CacheInfo struct {
	TotalCached   int        `json:"totalCached"`
	NewFromGoogle int        `json:"newFromGoogle"`
	LastUpdated   *time.Time `json:"lastUpdated"`
}

// ReviewsResult is the derived payload behind GET /reviews.
type ReviewsResult struct {
	Reviews          []domain.Review `json:"reviews"`
	AverageRating    float64         `json:"averageRating"`
	TotalReviewCount int             `json:"totalReviewCount"`
	Name             string          `json:"name"`
	PlaceID          *string         `json:"placeId"`
	Cached           bool            `json:"cached"`
	CacheInfo        CacheInfo       `json:"cacheInfo"`
	Error            string          `json:"error,omitempty"`
}

// ReviewService owns the load → fetch → merge → persist → derive cycle and
// the gated upstream pass-throughs. One instance serves all requests.
type ReviewService struct {
	client domain.ProfileClient
	store  *storage.Store

	accountID    string
	locationID   string
	fallbackName string

	group singleflight.Group
}

func NewReviewService(client domain.ProfileClient, store *storage.Store, accountID, locationID, fallbackName string) *ReviewService {
	return &ReviewService{
		client:       client,
		store:        store,
		accountID:    accountID,
		locationID:   locationID,
		fallbackName: fallbackName,
	}
}

// Reviews runs one full cycle. Concurrent callers collapse onto a single
// in-flight cycle and all receive its derived payload; the shared work runs
// on a detached context so one caller hanging up cannot fail the rest.
func (s *ReviewService) Reviews(ctx context.Context) (ReviewsResult, error) {
	if s.accountID == "" || s.locationID == "" {
		return ReviewsResult{}, domain.ErrNoLocation
	}
	v, err, _ := s.group.Do("reviews", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx)), nil
	})
	if err != nil {
		return ReviewsResult{}, err
	}
	return v.(ReviewsResult), nil
}

func (s *ReviewService) refresh(ctx context.Context) ReviewsResult {
	snap := s.store.Load(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	incoming, fetchErr := s.client.ListReviews(fetchCtx, s.accountID, s.locationID)
	cancel()
	if fetchErr != nil {
		log.Warn().Err(fetchErr).Msg("reviews fetch failed, serving cached snapshot")
		incoming = nil
	}

	merged := Merge(snap.Reviews, incoming)

	// A failed fetch must not fabricate freshness: lastUpdated only advances
	// when the upstream call succeeded, even if it brought nothing new.
	lastUpdated := snap.LastUpdated
	if fetchErr == nil {
		now := time.Now().UTC()
		lastUpdated = &now
	}
	s.store.Save(ctx, domain.Snapshot{Reviews: merged, LastUpdated: lastUpdated})

	res := s.derive(merged, len(incoming), fetchErr != nil, lastUpdated)
	s.enrich(ctx, &res)
	return res
}

// CachedOnly is the total-failure path: snapshot contents only, no upstream
// contact, so a request never returns nothing while any history exists.
func (s *ReviewService) CachedOnly(ctx context.Context, reason string) ReviewsResult {
	snap := s.store.Load(ctx)
	merged := Merge(snap.Reviews, nil)
	res := s.derive(merged, 0, true, snap.LastUpdated)
	res.Error = reason
	return res
}

// Accounts relays the upstream account listing untouched.
func (s *ReviewService) Accounts(ctx context.Context) (json.RawMessage, error) {
	return s.client.ListAccounts(ctx)
}

// Locations relays the upstream location listing for the configured account.
func (s *ReviewService) Locations(ctx context.Context) (json.RawMessage, error) {
	if s.accountID == "" {
		return nil, domain.ErrNoLocation
	}
	return s.client.ListLocations(ctx, s.accountID)
}

func (s *ReviewService) derive(merged []domain.Review, newCount int, cached bool, lastUpdated *time.Time) ReviewsResult {
	return ReviewsResult{
		Reviews:          merged,
		AverageRating:    AverageRating(merged),
		TotalReviewCount: len(merged),
		Name:             s.fallbackName,
		Cached:           cached,
		CacheInfo: CacheInfo{
			TotalCached:   len(merged),
			NewFromGoogle: newCount,
			LastUpdated:   lastUpdated,
		},
	}
}

// enrich fills the business name and place id from the location detail call.
// Failure only degrades those two fields.
func (s *ReviewService) enrich(ctx context.Context, res *ReviewsResult) {
	ctx, cancel := context.WithTimeout(ctx, enrichTimeout)
	defer cancel()

	loc, err := s.client.GetLocation(ctx, s.accountID, s.locationID)
	if err != nil {
		log.Debug().Err(err).Msg("location lookup failed, using fallback name")
		return
	}
	if loc.Name != "" {
		res.Name = loc.Name
	}
	if loc.PlaceID != "" {
		pid := loc.PlaceID
		res.PlaceID = &pid
	}
}

// AverageRating maps star ratings onto 1..5 (unrecognized values count as 0)
// and averages across every review, rounded to two decimals. Empty input
// yields 0.
func AverageRating(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rv := range reviews {
		sum += domain.StarValue(rv.StarRating)
	}
	return math.Round(float64(sum)/float64(len(reviews))*100) / 100
}
