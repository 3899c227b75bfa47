package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"gbp_reviews/internal/domain"
)

const (
	reviewPageSize = 50
	// maxReviewPages bounds a single refresh; 20 pages covers locations with
	// up to a thousand reviews without letting a bad pagination loop spin.
	maxReviewPages = 20
)

// ListReviews walks the paginated reviews collection for one location and
// returns every review the API hands back, newest pages first as served.
func (c *Client) ListReviews(ctx context.Context, accountID, locationID string) ([]domain.Review, error) {
	var (
		out       []domain.Review
		pageToken string
	)
	for page := 0; page < maxReviewPages; page++ {
		u := fmt.Sprintf("%s/accounts/%s/locations/%s/reviews?pageSize=%d",
			c.base, url.PathEscape(accountID), url.PathEscape(locationID), reviewPageSize)
		if pageToken != "" {
			u += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var body struct {
			Reviews       []domain.Review `json:"reviews"`
			NextPageToken string          `json:"nextPageToken"`
		}
		if err := c.get(ctx, "reviews", u, &body); err != nil {
			return nil, err
		}
		out = append(out, body.Reviews...)
		if body.NextPageToken == "" {
			break
		}
		pageToken = body.NextPageToken
	}
	return out, nil
}

// ListAccounts returns the raw accounts payload. Callers relay it as-is; the
// service has no account model of its own.
func (c *Client) ListAccounts(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.get(ctx, "accounts", c.base+"/accounts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListLocations returns the raw locations payload for one account.
func (c *Client) ListLocations(ctx context.Context, accountID string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/accounts/%s/locations", c.base, url.PathEscape(accountID))
	var out json.RawMessage
	if err := c.get(ctx, "locations", u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLocation fetches one location's detail and maps the fields we surface.
func (c *Client) GetLocation(ctx context.Context, accountID, locationID string) (domain.Location, error) {
	u := fmt.Sprintf("%s/accounts/%s/locations/%s", c.base, url.PathEscape(accountID), url.PathEscape(locationID))
	var payload map[string]any
	if err := c.get(ctx, "location", u, &payload); err != nil {
		return domain.Location{}, err
	}
	return mapLocation(payload), nil
}

// locationAliases lists, per mapped field, the payload paths that may carry
// the value. The v4 surface and the newer Business Information surface spell
// these differently; "name" itself is excluded because in v4 it holds the
// resource path, not the business title.
var locationAliases = map[string][]string{
	"name":    {"locationName", "title"},
	"placeId": {"locationKey.placeId", "metadata.placeId", "placeId"},
}

func mapLocation(payload map[string]any) domain.Location {
	return domain.Location{
		Name:    firstNonEmpty(payload, locationAliases["name"]...),
		PlaceID: firstNonEmpty(payload, locationAliases["placeId"]...),
	}
}

func firstNonEmpty(payload map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupString(payload, p); s != "" {
			return s
		}
	}
	return ""
}

// lookupString resolves a dot path through nested JSON objects and returns
// the string value at the end, or "" when any hop is missing or non-string.
func lookupString(payload map[string]any, path string) string {
	cur := any(payload)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		v, ok := obj[part]
		if !ok {
			return ""
		}
		cur = v
	}
	s, _ := cur.(string)
	return s
}
