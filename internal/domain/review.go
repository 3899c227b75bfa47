package domain

import (
	"encoding/json"
	"time"
)

// Review is one business review as known to this service. ReviewID is the
// sole dedup key; CreateTime orders the set; StarRating feeds the average.
// Raw holds the full upstream object verbatim; it is never interpreted
// beyond those three fields and is replaced wholesale when the same id is
// merged again.
type Review struct {
	ReviewID   string
	CreateTime string
	StarRating string
	Raw        json.RawMessage // full upstream review payload
}

type reviewFields struct {
	ReviewID   string `json:"reviewId"`
	CreateTime string `json:"createTime"`
	StarRating string `json:"starRating"`
}

// UnmarshalJSON keeps the upstream object byte-for-byte and lifts out only
// the fields merging, sorting and aggregation need.
func (r *Review) UnmarshalJSON(data []byte) error {
	var f reviewFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	r.ReviewID = f.ReviewID
	r.CreateTime = f.CreateTime
	r.StarRating = f.StarRating
	r.Raw = append([]byte(nil), data...)
	return nil
}

// MarshalJSON round-trips the preserved upstream object. Reviews built by
// hand (tests, fixtures) without Raw fall back to the known fields.
func (r Review) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(reviewFields{
		ReviewID:   r.ReviewID,
		CreateTime: r.CreateTime,
		StarRating: r.StarRating,
	})
}

var createTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// CreatedAt parses CreateTime for ordering. Missing or unparseable values
// return the zero time so they sort oldest without breaking the sort.
func (r Review) CreatedAt() time.Time {
	for _, layout := range createTimeLayouts {
		if t, err := time.Parse(layout, r.CreateTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

var starValues = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// StarValue maps the upstream star enum to its integer value. Unrecognized
// ratings contribute 0 to the sum but the review still counts toward totals.
func StarValue(rating string) int { return starValues[rating] }

// Snapshot is the durable aggregate: every review ever seen plus the time of
// the last successful fetch. It is persisted as a single JSON document.
type Snapshot struct {
	Reviews     []Review   `json:"reviews"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Location carries the optional enrichment served alongside reviews.
type Location struct {
	Name    string
	PlaceID string
}
