//go:build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"gbp_reviews/internal/adapters/google"
	httpserver "gbp_reviews/internal/adapters/http_server"
	"gbp_reviews/internal/app"
	"gbp_reviews/internal/storage"
	mysqlstore "gbp_reviews/internal/storage/mysql"
)

// fakeUpstream stands in for the Business Profile API. Flipping down makes
// every call answer 404 so the service has to fall back to its snapshot.
type fakeUpstream struct {
	down atomic.Bool
}

func (u *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/e2e/locations/l1/reviews", func(w http.ResponseWriter, r *http.Request) {
		if u.down.Load() {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"reviews":[
			{"reviewId":"r1","createTime":"2025-06-01T10:00:00Z","starRating":"FIVE","comment":"great"},
			{"reviewId":"r2","createTime":"2024-01-01T10:00:00Z","starRating":"ONE","comment":"bad"}
		]}`)
	})
	mux.HandleFunc("/accounts/e2e/locations/l1", func(w http.ResponseWriter, r *http.Request) {
		if u.down.Load() {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"locationName":"E2E Cafe","locationKey":{"placeId":"pid-e2e"}}`)
	})
	return mux
}

// TestHTTP_EndToEnd_SnapshotSurvivesUpstreamOutage drives the real router,
// service, API client and MySQL backend through a fetch and then an outage.
func TestHTTP_EndToEnd_SnapshotSurvivesUpstreamOutage(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=gbp",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/gbp?parseTime=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	st := mysqlstore.New(db, "accounts/e2e/locations/l1")
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	up := &fakeUpstream{}
	upstream := httptest.NewServer(up.handler())
	defer upstream.Close()

	client := google.New(upstream.URL, nil, 100)
	svc := app.NewReviewService(client, storage.New(st), "e2e", "l1", "Fallback Name")
	srv := httpserver.New(nil)
	srv.MountHandlers(&httpserver.Handlers{Svc: svc})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// First call: upstream healthy, snapshot gets written through MySQL.
	res1 := getReviews(t, ts.URL)
	if res1.Cached {
		t.Error("first call flagged cached with healthy upstream")
	}
	if res1.TotalReviewCount != 2 || res1.CacheInfo.NewFromGoogle != 2 {
		t.Fatalf("first call counts: total=%d new=%d", res1.TotalReviewCount, res1.CacheInfo.NewFromGoogle)
	}
	if res1.Name != "E2E Cafe" {
		t.Errorf("name = %q, want enriched", res1.Name)
	}

	// Outage: the service must keep answering from the persisted snapshot.
	up.down.Store(true)
	res2 := getReviews(t, ts.URL)
	if !res2.Cached {
		t.Error("second call not flagged cached during outage")
	}
	if res2.TotalReviewCount != 2 || res2.CacheInfo.NewFromGoogle != 0 {
		t.Fatalf("second call counts: total=%d new=%d", res2.TotalReviewCount, res2.CacheInfo.NewFromGoogle)
	}
	if res2.Name != "Fallback Name" {
		t.Errorf("name = %q, want fallback during outage", res2.Name)
	}
	if res2.Reviews[0].ReviewID != "r1" {
		t.Errorf("first review = %s, want newest", res2.Reviews[0].ReviewID)
	}

	// The document really lives in MySQL, not in process memory.
	doc, found, err := st.Read(ctx)
	if err != nil || !found {
		t.Fatalf("snapshot row: found=%v err=%v", found, err)
	}
	var persisted struct {
		Reviews []json.RawMessage `json:"reviews"`
	}
	if err := json.Unmarshal(doc, &persisted); err != nil {
		t.Fatalf("snapshot document: %v", err)
	}
	if len(persisted.Reviews) != 2 {
		t.Errorf("persisted %d reviews, want 2", len(persisted.Reviews))
	}
}

func getReviews(t *testing.T, base string) app.ReviewsResult {
	t.Helper()
	resp, err := http.Get(base + "/reviews")
	if err != nil {
		t.Fatalf("GET /reviews: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /reviews status %d", resp.StatusCode)
	}
	var out app.ReviewsResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}
