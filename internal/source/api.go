package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// searchRequest is the JSON body of one search call. One request covers one
// preferred city; the poll loop issues a call per city every iteration.
type searchRequest struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
	Locale   string `json:"locale,omitempty"`
}

// searchCard is a single job card in the search API response.
type searchCard struct {
	JobID        string `json:"jobId"`
	Title        string `json:"jobTitle"`
	LocationName string `json:"locationName"`
	JobLink      string `json:"jobLink"`
	PayRateText  string `json:"totalPayRateText"`
	ShiftText    string `json:"scheduleText"`
}

type searchResponse struct {
	Jobs []searchCard `json:"jobCards"`
}

// APISource fetches listings by posting a JSON search request to the hiring
// site's card-search endpoint.
type APISource struct {
	baseURL string
	keyword string
	locale  string
	client  *http.Client
}

// NewAPISource creates a source for the search API rooted at baseURL.
func NewAPISource(baseURL, keyword, locale string, client *http.Client) *APISource {
	return &APISource{
		baseURL: baseURL,
		keyword: keyword,
		locale:  locale,
		client:  client,
	}
}

// FetchListings issues one search call for the given city and normalizes the
// card list. "No results" is an empty slice, not an error. A card missing a
// usable link or id is dropped; other missing fields degrade to the N/A
// sentinel so one bad entry never fails the fetch.
func (s *APISource) FetchListings(ctx context.Context, city string) ([]model.Listing, error) {
	body, err := json.Marshal(searchRequest{
		Keyword:  s.keyword,
		Location: city,
		Locale:   s.locale,
	})
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", city, err)
	}

	url := s.baseURL + "/api/jobs/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", city, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("search request for %q: unexpected status %d", city, resp.StatusCode),
		}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("search response for %q: %w", city, err)
	}

	now := time.Now()
	listings := make([]model.Listing, 0, len(sr.Jobs))
	for _, card := range sr.Jobs {
		id := card.JobID
		if id == "" {
			id = model.ListingID(card.JobLink)
		}
		if id == "" {
			// Nothing stable to dedup on.
			continue
		}
		listings = append(listings, model.Listing{
			ID:           id,
			Title:        orNA(card.Title),
			Location:     orNA(card.LocationName),
			Pay:          orNA(card.PayRateText),
			Shift:        orNA(card.ShiftText),
			Link:         orNA(card.JobLink),
			DiscoveredAt: now,
		})
	}

	return listings, nil
}

func orNA(s string) string {
	if s == "" {
		return model.NA
	}
	return s
}
