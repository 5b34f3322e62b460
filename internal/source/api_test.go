package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mjdav02/shiftwatch/internal/model"
)

func TestAPIFetchListings_Success(t *testing.T) {
	payload := `{
		"jobCards": [
			{
				"jobId": "JOB-US-001",
				"jobTitle": "Warehouse Picker",
				"locationName": "Cambridge, ON",
				"jobLink": "https://hiring.example.ca/jobs/JOB-US-001",
				"totalPayRateText": "$20.50/hr",
				"scheduleText": "Night shift"
			},
			{
				"jobId": "JOB-US-002",
				"jobTitle": "Sortation Associate",
				"locationName": "Hamilton, ON",
				"jobLink": "https://hiring.example.ca/jobs/JOB-US-002"
			}
		]
	}`

	var gotBody searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "warehouse", "en-CA", srv.Client())
	listings, err := src.FetchListings(context.Background(), "Cambridge, Ontario, Canada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody.Keyword != "warehouse" || gotBody.Location != "Cambridge, Ontario, Canada" {
		t.Errorf("search request = %+v", gotBody)
	}

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	l := listings[0]
	if l.ID != "JOB-US-001" {
		t.Errorf("ID = %q, want JOB-US-001", l.ID)
	}
	if l.Title != "Warehouse Picker" || l.Location != "Cambridge, ON" {
		t.Errorf("listing = %+v", l)
	}
	if l.Pay != "$20.50/hr" || l.Shift != "Night shift" {
		t.Errorf("pay/shift = %q/%q", l.Pay, l.Shift)
	}
	if l.DiscoveredAt.IsZero() {
		t.Error("DiscoveredAt should be set at fetch time")
	}

	// Optional fields degrade to the sentinel, not empty strings.
	if listings[1].Pay != model.NA || listings[1].Shift != model.NA {
		t.Errorf("missing pay/shift = %q/%q, want N/A", listings[1].Pay, listings[1].Shift)
	}
}

func TestAPIFetchListings_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobCards": []}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "warehouse", "", srv.Client())
	listings, err := src.FetchListings(context.Background(), "Cambridge")
	if err != nil {
		t.Fatalf("no results should not be an error, got: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected 0 listings, got %d", len(listings))
	}
}

func TestAPIFetchListings_IDDerivedFromLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobCards": [
			{"jobTitle": "Picker", "locationName": "Cambridge, ON", "jobLink": "https://hiring.example.ca/jobs/JOB-77?cmpid=x"},
			{"jobTitle": "No Link At All", "locationName": "Hamilton, ON"}
		]}`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "warehouse", "", srv.Client())
	listings, err := src.FetchListings(context.Background(), "Cambridge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Entry without link or id is dropped; the other derives its ID from the link.
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].ID != "JOB-77" {
		t.Errorf("ID = %q, want JOB-77 (derived from link)", listings[0].ID)
	}
}

func TestAPIFetchListings_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "warehouse", "", srv.Client())
	if _, err := src.FetchListings(context.Background(), "Cambridge"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestAPIFetchListings_HTTPErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewAPISource(srv.URL, "warehouse", "", srv.Client())
	_, err := src.FetchListings(context.Background(), "Cambridge")
	if err == nil {
		t.Fatal("expected error for 429")
	}
	httpErr, ok := err.(*model.HTTPError)
	if !ok {
		t.Fatalf("error type = %T, want *model.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 120 {
		t.Errorf("RetryAfter = %v, want 120s", httpErr.RetryAfter)
	}
}
