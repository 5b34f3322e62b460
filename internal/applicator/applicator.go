package applicator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// Ensure HTTPApplicator implements model.Applicator.
var _ model.Applicator = (*HTTPApplicator)(nil)

// Profile is the static applicant data used to fill application forms.
type Profile struct {
	Email      string
	Phone      string
	ResumePath string
}

// HTTPApplicator walks a posting's application flow over HTTP: locate the
// apply affordance, fill the form from the profile, attach the resume, and
// submit. Every step is best-effort; a missing field or resume is logged
// and skipped, never fatal. Each attempt uses its own scoped timeout and
// closes every response body it opens.
type HTTPApplicator struct {
	client  *http.Client
	profile Profile
	timeout time.Duration
	logger  *slog.Logger
}

// NewHTTPApplicator creates an applicator with a per-attempt timeout.
func NewHTTPApplicator(client *http.Client, profile Profile, timeout time.Duration, logger *slog.Logger) *HTTPApplicator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPApplicator{
		client:  client,
		profile: profile,
		timeout: timeout,
		logger:  logger,
	}
}

// Apply runs one application attempt against the listing. The returned
// result always carries a named outcome; the no-button outcomes are
// expected page states, not errors.
func (a *HTTPApplicator) Apply(ctx context.Context, listing model.Listing) model.ApplyResult {
	// A card without a link has no page to apply on. Sources fill missing
	// fields with the N/A sentinel rather than failing the fetch.
	if listing.Link == "" || listing.Link == model.NA {
		a.logger.Warn("listing has no link, skipping apply", "listing", listing.ID, "title", listing.Title)
		return model.ApplyResult{Outcome: model.OutcomeNoApplyButton}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.logger.Info("applying", "listing", listing.ID, "title", listing.Title, "location", listing.Location)

	page, err := a.fetchDocument(ctx, listing.Link)
	if err != nil {
		return a.failure(listing, err)
	}

	applyURL, ok := findApplyLink(page, listing.Link)
	if !ok {
		a.logger.Info("no apply button on posting page", "listing", listing.ID)
		return model.ApplyResult{Outcome: model.OutcomeNoApplyButton}
	}

	form, err := a.fetchDocument(ctx, applyURL)
	if err != nil {
		return a.failure(listing, err)
	}

	action, ok := findSubmitAction(form, applyURL)
	if !ok {
		a.logger.Info("no submit button on application form", "listing", listing.ID)
		return model.ApplyResult{Outcome: model.OutcomeNoSubmitButton}
	}

	body, contentType := a.buildSubmission(form, listing)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, body)
	if err != nil {
		return a.failure(listing, fmt.Errorf("building submit request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return a.failure(listing, fmt.Errorf("submitting application: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return a.failure(listing, fmt.Errorf("submitting application: status %d", resp.StatusCode))
	}

	a.logger.Info("application submitted", "listing", listing.ID, "title", listing.Title)
	return model.ApplyResult{Outcome: model.OutcomeSubmitted}
}

// failure maps an error to the TimedOut or Failed outcome.
func (a *HTTPApplicator) failure(listing model.Listing, err error) model.ApplyResult {
	outcome := model.OutcomeFailed
	if errors.Is(err, context.DeadlineExceeded) {
		outcome = model.OutcomeTimedOut
	}
	a.logger.Warn("application attempt failed",
		"listing", listing.ID,
		"outcome", outcome.String(),
		"error", err,
	)
	return model.ApplyResult{Outcome: outcome, Err: err}
}

func (a *HTTPApplicator) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pageURL, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loading %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}

// buildSubmission fills the application form into a multipart body. Fields
// the form does not carry are logged and skipped; a missing resume file is
// likewise non-fatal.
func (a *HTTPApplicator) buildSubmission(form *goquery.Document, listing model.Listing) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name  string
		value string
	}{
		{"email", a.profile.Email},
		{"phone", a.profile.Phone},
	}
	for _, f := range fields {
		if form.Find(fmt.Sprintf(`input[name=%q]`, f.name)).Length() == 0 {
			a.logger.Warn("form field not found, skipping", "listing", listing.ID, "field", f.name)
			continue
		}
		w.WriteField(f.name, f.value)
	}

	a.attachResume(form, w, listing)

	w.Close()
	return &buf, w.FormDataContentType()
}

func (a *HTTPApplicator) attachResume(form *goquery.Document, w *multipart.Writer, listing model.Listing) {
	fileInput := form.Find(`input[type="file"]`).First()
	if fileInput.Length() == 0 {
		a.logger.Warn("no resume upload field on form", "listing", listing.ID)
		return
	}
	fieldName := fileInput.AttrOr("name", "resume")

	f, err := os.Open(a.profile.ResumePath)
	if err != nil {
		a.logger.Warn("could not open resume, skipping upload", "listing", listing.ID, "error", err)
		return
	}
	defer f.Close()

	part, err := w.CreateFormFile(fieldName, filepath.Base(a.profile.ResumePath))
	if err != nil {
		a.logger.Warn("could not attach resume", "listing", listing.ID, "error", err)
		return
	}
	if _, err := io.Copy(part, f); err != nil {
		a.logger.Warn("could not attach resume", "listing", listing.ID, "error", err)
	}
}

// Candidate selectors for the apply affordance. Text matching is the
// fallback for boards without stable attributes.
var applySelectors = []string{
	`a[data-test-id="applyButton"]`,
	"a.apply-button",
	"a.job-apply",
}

var applyTexts = []string{"apply now", "start application"}

// findApplyLink locates the apply affordance on the posting page and
// returns its absolute URL.
func findApplyLink(page *goquery.Document, pageURL string) (string, bool) {
	for _, sel := range applySelectors {
		if href, ok := page.Find(sel).First().Attr("href"); ok {
			return resolveURL(pageURL, href), true
		}
	}

	var href string
	page.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(link.Text()))
		for _, t := range applyTexts {
			if strings.Contains(text, t) {
				href, _ = link.Attr("href")
				return false
			}
		}
		return true
	})
	if href != "" {
		return resolveURL(pageURL, href), true
	}
	return "", false
}

var submitTexts = []string{"submit application", "submit", "continue"}

// findSubmitAction locates the submit/continue affordance on the form page
// and returns the absolute form action to POST to.
func findSubmitAction(form *goquery.Document, formURL string) (string, bool) {
	f := form.Find("form").First()
	if f.Length() == 0 {
		return "", false
	}

	found := f.Find(`button[type="submit"], input[type="submit"]`).Length() > 0
	if !found {
		f.Find("button").EachWithBreak(func(_ int, btn *goquery.Selection) bool {
			text := strings.ToLower(strings.TrimSpace(btn.Text()))
			for _, t := range submitTexts {
				if strings.Contains(text, t) {
					found = true
					return false
				}
			}
			return true
		})
	}
	if !found {
		return "", false
	}

	action := f.AttrOr("action", "")
	if action == "" {
		return formURL, true
	}
	return resolveURL(formURL, action), true
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
