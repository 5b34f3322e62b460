package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// DOMSource fetches listings by rendering the search results page and
// extracting fields from the job cards. The deployment variant for sites
// without a usable search API.
type DOMSource struct {
	baseURL string
	keyword string
	client  *http.Client
}

// NewDOMSource creates a source that scrapes the search page at baseURL.
func NewDOMSource(baseURL, keyword string, client *http.Client) *DOMSource {
	return &DOMSource{
		baseURL: baseURL,
		keyword: keyword,
		client:  client,
	}
}

// FetchListings loads the search results page for the given city and parses
// every job card. Per-card parse failures are isolated: a card without a
// link is skipped, a card missing only text fields gets N/A sentinels.
func (s *DOMSource) FetchListings(ctx context.Context, city string) ([]model.Listing, error) {
	searchURL := fmt.Sprintf("%s/search?%s", s.baseURL, url.Values{
		"keyword":  {s.keyword},
		"location": {city},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("search page for %q: %w", city, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search page for %q: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("search page for %q: unexpected status %d", city, resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing search page for %q: %w", city, err)
	}

	now := time.Now()
	var listings []model.Listing
	doc.Find("div.job-tile").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a").First().Attr("href")
		if !ok {
			return
		}
		link := s.absoluteLink(href)
		id := model.ListingID(link)
		if id == "" {
			return
		}

		listings = append(listings, model.Listing{
			ID:           id,
			Title:        cardText(card, ".job-title"),
			Location:     cardText(card, ".job-location"),
			Pay:          cardText(card, ".job-pay"),
			Shift:        cardText(card, ".job-shift"),
			Link:         link,
			DiscoveredAt: now,
		})
	})

	return listings, nil
}

// absoluteLink resolves card hrefs that are relative to the site root.
func (s *DOMSource) absoluteLink(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return s.baseURL + "/" + strings.TrimPrefix(href, "/")
}

// cardText extracts the trimmed text of the first match within a card,
// degrading to the N/A sentinel when the element is absent or empty.
func cardText(card *goquery.Selection, selector string) string {
	text := strings.TrimSpace(card.Find(selector).First().Text())
	return orNA(strings.Join(strings.Fields(text), " "))
}
