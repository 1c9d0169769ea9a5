package harvest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/logger"
	"github.com/pfrederiksen/trico-scraper/internal/query"
)

// Source fetches and parses the search interface. *scraper.Scraper implements it.
type Source interface {
	CountHits(ctx context.Context, params url.Values) (int, error)
	FetchLinks(ctx context.Context, params url.Values) ([]string, error)
	FetchCourse(ctx context.Context, detailURL string) (*course.Record, error)
}

// Stage names the phase a failure happened in.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageExtract  Stage = "extract"
)

// Failure is one results page or detail page that could not be processed.
type Failure struct {
	Stage  Stage
	Target string // page offset parameters or detail-page URL
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.Target, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the error as its message.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Stage  Stage  `json:"stage"`
		Target string `json:"target"`
		Error  string `json:"error"`
	}{f.Stage, f.Target, f.Err.Error()})
}

// Result is everything a run produced.
type Result struct {
	Query    query.SearchQuery // with default sets filled in
	Hits     int
	Pages    int // results pages requested
	Links    []string
	Courses  []*course.Record
	Failures []Failure
}

// FailureCount returns how many failures happened in stage.
func (r *Result) FailureCount(stage Stage) int {
	n := 0
	for _, f := range r.Failures {
		if f.Stage == stage {
			n++
		}
	}
	return n
}

// Err joins all failures, or returns nil when there were none.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Options configures a Harvester.
type Options struct {
	Workers  int  // concurrent fetches per phase; <= 0 means GOMAXPROCS
	PageSize int  // results per page; <= 0 means query.PageSize
	FailFast bool // abort the run on the first failed page or record
}

// Harvester runs searches against a Source.
type Harvester struct {
	source Source
	lookup query.Lookup
	opts   Options
}

// New creates a Harvester. lookup may be nil when every query names its sets.
func New(source Source, lookup query.Lookup, opts Options) *Harvester {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = query.PageSize
	}
	return &Harvester{
		source: source,
		lookup: lookup,
		opts:   opts,
	}
}

// Workers returns the pool size used for each phase.
func (h *Harvester) Workers() int {
	return h.opts.Workers
}

// Run executes one search. The returned error is fatal: the query could not be
// resolved or counted, the context ended, or FailFast hit a failure. Per-item
// failures otherwise land in Result.Failures.
func (h *Harvester) Run(ctx context.Context, q query.SearchQuery) (*Result, error) {
	resolved, err := q.Resolve(ctx, h.lookup)
	if err != nil {
		return nil, err
	}

	hits, err := h.source.CountHits(ctx, resolved.Params())
	if err != nil {
		return nil, fmt.Errorf("counting hits: %w", err)
	}

	offsets := query.Offsets(hits, h.opts.PageSize)
	logger.SetGauge("harvest.workers", float64(h.opts.Workers))
	logger.Info("Counted hits", logger.Fields{
		"hits":    hits,
		"pages":   len(offsets),
		"workers": h.opts.Workers,
	})

	result := &Result{Query: resolved, Hits: hits, Pages: len(offsets)}

	links, err := h.discover(ctx, resolved, offsets, result)
	if err != nil {
		return nil, err
	}
	result.Links = links

	courses, err := h.extract(ctx, links, result)
	if err != nil {
		return nil, err
	}
	result.Courses = courses

	logger.Info("Harvest finished", logger.Fields{
		"hits":     hits,
		"links":    len(links),
		"courses":  len(courses),
		"failures": len(result.Failures),
	})
	return result, nil
}

// discover fetches every results page and flattens the links in offset order.
func (h *Harvester) discover(ctx context.Context, q query.SearchQuery, offsets []int, result *Result) ([]string, error) {
	start := time.Now()
	pages := make([][]string, len(offsets))
	errs := make([]error, len(offsets))

	err := h.runPhase(ctx, len(offsets), func(ctx context.Context, i int) error {
		links, err := h.source.FetchLinks(ctx, q.PageParams(offsets[i]))
		if err != nil {
			errs[i] = err
			return err
		}
		pages[i] = links
		logger.IncrCounter("harvest.pages")
		return nil
	})
	logger.RecordTiming("harvest.discover", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("discovering links: %w", err)
	}

	var links []string
	for i, page := range pages {
		if errs[i] != nil {
			h.recordFailure(result, Failure{
				Stage:  StageDiscover,
				Target: fmt.Sprintf("run_tot=%d", offsets[i]),
				Err:    errs[i],
			})
			continue
		}
		links = append(links, page...)
	}
	logger.AddCounter("harvest.links", int64(len(links)))
	return links, nil
}

// extract fetches and parses every detail page. Records keep link order.
func (h *Harvester) extract(ctx context.Context, links []string, result *Result) ([]*course.Record, error) {
	start := time.Now()
	records := make([]*course.Record, len(links))
	errs := make([]error, len(links))

	err := h.runPhase(ctx, len(links), func(ctx context.Context, i int) error {
		t := time.Now()
		rec, err := h.source.FetchCourse(ctx, links[i])
		logger.RecordTiming("harvest.fetch_course", time.Since(t))
		if err != nil {
			errs[i] = err
			return err
		}
		records[i] = rec
		logger.IncrCounter("harvest.records")
		return nil
	})
	logger.RecordTiming("harvest.extract", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("extracting courses: %w", err)
	}

	courses := make([]*course.Record, 0, len(records))
	for i, rec := range records {
		if errs[i] != nil {
			h.recordFailure(result, Failure{Stage: StageExtract, Target: links[i], Err: errs[i]})
			continue
		}
		courses = append(courses, rec)
	}
	return courses, nil
}

func (h *Harvester) recordFailure(result *Result, f Failure) {
	result.Failures = append(result.Failures, f)
	logger.IncrCounter("harvest.failures")
	logger.Warn("Skipping failed item", logger.Fields{
		"stage":  string(f.Stage),
		"target": f.Target,
	}, f.Err)
}

// runPhase calls fn for every index on a pool of at most Workers goroutines that
// lives only for this call. Item errors are returned only under FailFast, where the
// first one cancels the rest. A cancelled parent context is always returned.
func (h *Harvester) runPhase(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, i); err != nil && h.opts.FailFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
