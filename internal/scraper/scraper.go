package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/logger"
	"github.com/pfrederiksen/trico-scraper/internal/query"
)

const (
	BaseURL    = "https://trico.haverford.edu"
	SearchPath = "/cgi-bin/courseguide/cgi-bin/search.cgi"
	SearchURL  = BaseURL + SearchPath
	UserAgent  = "trico-scraper/1.0 (github.com/pfrederiksen/trico-scraper)"
	Timeout    = 30 * time.Second

	DefaultRetries       = 2
	DefaultRetryInterval = 500 * time.Millisecond
)

// ErrTransport marks network failures and non-200 responses.
var ErrTransport = errors.New("transport error")

// Scraper handles fetching and parsing course guide pages
type Scraper struct {
	client        *http.Client
	searchURL     string
	baseURL       string
	retries       uint64
	retryInterval time.Duration
}

// Option configures a Scraper
type Option func(*Scraper)

// WithSearchURL points the scraper at a different search endpoint.
func WithSearchURL(u string) Option {
	return func(s *Scraper) { s.searchURL = u }
}

// WithBaseURL sets the prefix joined to every detail-page href.
func WithBaseURL(u string) Option {
	return func(s *Scraper) { s.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.client.Timeout = d }
}

// WithRetries sets how many times a transport failure is retried.
func WithRetries(n int, interval time.Duration) Option {
	return func(s *Scraper) {
		if n < 0 {
			n = 0
		}
		s.retries = uint64(n)
		if interval > 0 {
			s.retryInterval = interval
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		searchURL:     SearchURL,
		baseURL:       BaseURL,
		retries:       DefaultRetries,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetch GETs rawURL and returns the body of a 200 response.
func (s *Scraper) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: fetching %s: %w", ErrTransport, rawURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: %s returned status %d", ErrTransport, rawURL, resp.StatusCode)
			if resp.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %w", ErrTransport, rawURL, err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx)

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("scraper.retries")
		logger.Warn("Retrying request", logger.Fields{
			"url":  rawURL,
			"wait": wait.String(),
		}, err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", rawURL, err)
	}
	return doc, nil
}

func (s *Scraper) searchPage(params url.Values) string {
	return s.searchURL + "?" + params.Encode()
}

// CountHits reads the total number of results for a search.
func (s *Scraper) CountHits(ctx context.Context, params url.Values) (int, error) {
	pageURL := s.searchPage(params)
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return 0, err
	}
	return parseHitCount(doc, pageURL)
}

// parseHitCount takes the last word of the first bold text inside a font element,
// e.g. "Number of courses found: 312".
func parseHitCount(doc *goquery.Document, pageURL string) (int, error) {
	bold := doc.Find("font").First().Find("b").First()
	if bold.Length() == 0 {
		return 0, fmt.Errorf("%w: no hit count on %s", course.ErrShape, pageURL)
	}

	fields := strings.Fields(bold.Text())
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty hit count on %s", course.ErrShape, pageURL)
	}

	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: hit count %q on %s", course.ErrShape, bold.Text(), pageURL)
	}
	return n, nil
}

// FetchLinks returns the detail-page URLs listed on one results page, in page order.
func (s *Scraper) FetchLinks(ctx context.Context, params url.Values) ([]string, error) {
	pageURL := s.searchPage(params)
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return s.parseLinks(doc, pageURL)
}

func (s *Scraper) parseLinks(doc *goquery.Document, pageURL string) ([]string, error) {
	table := doc.Find(`table[width="100%"][border="2"]`).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no results table on %s", course.ErrShape, pageURL)
	}

	links := make([]string, 0)
	table.Find("a").Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		links = append(links, s.baseURL+strings.TrimSpace(href))
	})
	return links, nil
}

// FetchCourse fetches one detail page and extracts its record.
func (s *Scraper) FetchCourse(ctx context.Context, detailURL string) (*course.Record, error) {
	body, err := s.fetch(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	return course.Extract(bytes.NewReader(body), detailURL)
}

// formFields are the multi-valued inputs of the search form.
var formFields = []string{"campus", "dept", "smstr"}

// Lookup reads the campus, department and semester choices offered by the search form.
// It lets a Scraper serve as the query.Lookup for default sets.
func (s *Scraper) Lookup(ctx context.Context) (query.Sets, error) {
	doc, err := s.fetchDocument(ctx, s.searchURL)
	if err != nil {
		return query.Sets{}, fmt.Errorf("fetching search form: %w", err)
	}
	return parseFormSets(doc, s.searchURL)
}

func parseFormSets(doc *goquery.Document, pageURL string) (query.Sets, error) {
	values := make(map[string][]string, len(formFields))
	for _, name := range formFields {
		values[name] = formValues(doc, name)
		if len(values[name]) == 0 {
			return query.Sets{}, fmt.Errorf("%w: search form on %s offers no %s values", course.ErrShape, pageURL, name)
		}
	}

	return query.Sets{
		Campuses:    values["campus"],
		Departments: values["dept"],
		Semesters:   values["smstr"],
	}, nil
}

// formValues collects option values of a select and values of same-named inputs.
func formValues(doc *goquery.Document, name string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	doc.Find(fmt.Sprintf(`select[name=%q] option`, name)).Each(func(i int, opt *goquery.Selection) {
		if v, ok := opt.Attr("value"); ok {
			add(v)
			return
		}
		add(opt.Text())
	})
	doc.Find(fmt.Sprintf(`input[name=%q]`, name)).Each(func(i int, in *goquery.Selection) {
		if v, ok := in.Attr("value"); ok {
			add(v)
		}
	})
	return out
}
