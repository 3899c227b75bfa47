package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gbp_reviews/internal/domain"
)

func rv(id, createTime string) domain.Review {
	return domain.Review{ReviewID: id, CreateTime: createTime}
}

func joinIDs(reviews []domain.Review) string {
	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ReviewID
	}
	return strings.Join(ids, ",")
}

func TestMerge_KeepsReviewsRemovedUpstream(t *testing.T) {
	current := []domain.Review{rv("a", "2024-01-01"), rv("b", "2025-06-01"), rv("c", "2023-03-03")}
	incoming := []domain.Review{rv("a", "2024-01-01")}

	merged := Merge(current, incoming)
	if len(merged) != 3 {
		t.Fatalf("got %d reviews, want 3: %s", len(merged), joinIDs(merged))
	}
	if got := joinIDs(merged); got != "b,a,c" {
		t.Errorf("order = %s, want b,a,c", got)
	}
}

func TestMerge_LastWriterWinsWholesale(t *testing.T) {
	var old, edited domain.Review
	if err := json.Unmarshal([]byte(`{"reviewId":"a","createTime":"2024-01-01","starRating":"ONE","comment":"meh"}`), &old); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"reviewId":"a","createTime":"2024-01-01","starRating":"FIVE","comment":"actually great"}`), &edited); err != nil {
		t.Fatal(err)
	}

	merged := Merge([]domain.Review{old}, []domain.Review{edited})
	if len(merged) != 1 {
		t.Fatalf("got %d reviews, want 1", len(merged))
	}
	if merged[0].StarRating != "FIVE" {
		t.Errorf("starRating = %s, want FIVE", merged[0].StarRating)
	}
	if !bytes.Equal(merged[0].Raw, edited.Raw) {
		t.Errorf("stored record not replaced wholesale: %s", merged[0].Raw)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	current := []domain.Review{rv("a", "2024-01-01"), rv("b", "2025-06-01")}
	incoming := []domain.Review{rv("b", "2025-06-01"), rv("c", "2023-03-03")}

	once := Merge(current, incoming)
	twice := Merge(once, incoming)
	if joinIDs(once) != joinIDs(twice) {
		t.Errorf("second merge changed result: %s vs %s", joinIDs(once), joinIDs(twice))
	}
	if len(twice) != 3 {
		t.Errorf("got %d reviews, want 3", len(twice))
	}
}

func TestMerge_GrowsMonotonically(t *testing.T) {
	current := []domain.Review{rv("a", "2024-01-01"), rv("b", "2025-06-01")}
	merged := Merge(current, []domain.Review{rv("c", "2026-01-01")})

	seen := make(map[string]bool, len(merged))
	for _, r := range merged {
		seen[r.ReviewID] = true
	}
	for _, r := range current {
		if !seen[r.ReviewID] {
			t.Errorf("id %s lost by merge", r.ReviewID)
		}
	}
}

func TestMerge_SortsNewestFirst(t *testing.T) {
	merged := Merge(nil, []domain.Review{
		rv("mid", "2024-01-01"),
		rv("old", "2023-03-03"),
		rv("new", "2025-06-01"),
	})
	if got := joinIDs(merged); got != "new,mid,old" {
		t.Errorf("order = %s, want new,mid,old", got)
	}
}

func TestMerge_UnparseableCreateTimeSortsOldest(t *testing.T) {
	merged := Merge(nil, []domain.Review{
		rv("late", ""),
		rv("bad", "not-a-date"),
		rv("ok", "2024-01-01"),
	})
	if merged[0].ReviewID != "ok" {
		t.Errorf("first = %s, want ok", merged[0].ReviewID)
	}
	// zero-time records keep their stable relative order at the tail
	if got := joinIDs(merged[1:]); got != "late,bad" {
		t.Errorf("tail = %s, want late,bad", got)
	}
}

func TestMerge_DropsRecordsWithoutID(t *testing.T) {
	merged := Merge(
		[]domain.Review{rv("", "2024-01-01"), rv("a", "2024-01-01")},
		[]domain.Review{rv("", "2025-06-01")},
	)
	if got := joinIDs(merged); got != "a" {
		t.Errorf("ids = %s, want a", got)
	}
}

func TestMerge_CollapsesStoredDuplicates(t *testing.T) {
	stored := []domain.Review{rv("a", "2024-01-01"), rv("a", "2023-03-03")}
	merged := Merge(stored, nil)
	if len(merged) != 1 {
		t.Fatalf("got %d reviews, want 1", len(merged))
	}
	if merged[0].CreateTime != "2024-01-01" {
		t.Errorf("kept %s, want first occurrence", merged[0].CreateTime)
	}
}

func TestMerge_EmptyInputs(t *testing.T) {
	merged := Merge(nil, nil)
	if merged == nil {
		t.Fatal("merge of nothing must still be an empty slice, not nil")
	}
	if len(merged) != 0 {
		t.Fatalf("got %d reviews, want 0", len(merged))
	}
}
