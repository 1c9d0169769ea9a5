package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/trico-scraper/internal/collate"
	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/harvest"
	"github.com/pfrederiksen/trico-scraper/internal/logger"
	"github.com/pfrederiksen/trico-scraper/internal/query"
	"github.com/pfrederiksen/trico-scraper/internal/scraper"
	"github.com/pfrederiksen/trico-scraper/internal/storage"
)

var (
	flagSemesters   []string
	flagCampuses    []string
	flagDepartments []string
	flagMeetTimes   []string
	flagCourseNum   string
	flagInstructor  string
	flagMeetDay     string
	flagPhrase      string
	flagBaseURL     string
	flagWorkers     int
	flagTimeout     time.Duration
	flagRetries     int
	flagFailFast    bool
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Search the course guide and write raw and collated JSON",
		Long: `Runs one course guide search, fetches every matching course page and writes
out_scraped.json and out_collate.json to the data directory.

Empty --semester, --campus or --dept sets are filled with every value the search
form offers. Exits 2 when some pages or courses failed but the rest were saved.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&flagSemesters, "semester", nil, "Semester codes, e.g. Fall_2018 (repeatable; default all)")
	flags.StringSliceVar(&flagCampuses, "campus", nil, "Campuses (repeatable; default all)")
	flags.StringSliceVar(&flagDepartments, "dept", nil, "Department codes (repeatable; default all)")
	flags.StringSliceVar(&flagMeetTimes, "meettime", nil, "Meeting time filters (repeatable)")
	flags.StringVar(&flagCourseNum, "crsnum", "", "Course number filter")
	flags.StringVar(&flagInstructor, "instr", "", "Instructor filter")
	flags.StringVar(&flagMeetDay, "meetday", "", "Meeting day filter")
	flags.StringVar(&flagPhrase, "phrase", "", "Free-text search phrase")
	flags.StringVar(&flagBaseURL, "base-url", envOr(EnvBaseURL, scraper.BaseURL), "Course guide host (env: "+EnvBaseURL+")")
	flags.IntVar(&flagWorkers, "workers", envIntOr(EnvWorkers, 0), "Concurrent fetches per phase, 0 for one per CPU (env: "+EnvWorkers+")")
	flags.DurationVar(&flagTimeout, "timeout", scraper.Timeout, "Per-request HTTP timeout")
	flags.IntVar(&flagRetries, "retries", scraper.DefaultRetries, "Retries for network errors and 5xx responses")
	flags.BoolVar(&flagFailFast, "fail-fast", false, "Abort on the first failed page or course")

	return cmd
}

func searchQuery() query.SearchQuery {
	return query.SearchQuery{
		Campuses:     flagCampuses,
		Departments:  flagDepartments,
		Semesters:    flagSemesters,
		CourseNumber: flagCourseNum,
		Instructor:   flagInstructor,
		MeetDay:      flagMeetDay,
		MeetTimes:    flagMeetTimes,
		SearchPhrase: flagPhrase,
	}
}

func newScraper() *scraper.Scraper {
	base := strings.TrimRight(flagBaseURL, "/")
	return scraper.New(
		scraper.WithBaseURL(base),
		scraper.WithSearchURL(base+scraper.SearchPath),
		scraper.WithTimeout(flagTimeout),
		scraper.WithRetries(flagRetries, 0),
	)
}

func runScrape(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	store, err := openStorage()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sc := newScraper()
	h := harvest.New(sc, sc, harvest.Options{
		Workers:  flagWorkers,
		FailFast: flagFailFast,
	})

	logger.Info("Starting harvest", logger.Fields{
		"base_url": flagBaseURL,
		"workers":  h.Workers(),
		"data_dir": flagDataDir,
	})

	result, err := h.Run(ctx, searchQuery())
	if err != nil {
		return fmt.Errorf("harvesting: %w", err)
	}

	if err := store.SaveRecords(result.Courses); err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	summary, err := collateAndSave(store, result.Courses)
	if err != nil {
		return err
	}
	summary.Query = result.Query
	summary.Hits = result.Hits
	summary.Links = len(result.Links)
	summary.Failures = result.Failures

	if err := WriteSummary(cmd.OutOrStdout(), summary, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	printMetrics(cmd.ErrOrStderr())

	if len(result.Failures) > 0 {
		counts := fmt.Errorf("%w: %d of %d results pages and %d of %d courses failed", ErrPartial,
			result.FailureCount(harvest.StageDiscover), result.Pages,
			result.FailureCount(harvest.StageExtract), len(result.Links))
		return errors.Join(counts, result.Err())
	}
	return nil
}

// collateAndSave collates records and writes the buckets.
func collateAndSave(store *storage.Storage, records []*course.Record) (*Summary, error) {
	c, err := collate.Collate(records)
	if err != nil {
		return nil, fmt.Errorf("collating: %w", err)
	}
	for _, d := range c.Duplicates {
		logger.Warn("Duplicate registration number in bucket", logger.Fields{
			"bucket": d.Bucket,
			"id":     d.ID,
			"url":    d.URL,
		}, nil)
	}
	logger.AddCounter("collate.duplicates", int64(len(c.Duplicates)))

	if err := store.SaveCollation(c.Buckets); err != nil {
		return nil, fmt.Errorf("saving collation: %w", err)
	}

	summary := &Summary{
		CheckedAt:    time.Now().UTC(),
		Records:      len(records),
		Entries:      c.Buckets.Len(),
		Duplicates:   c.Duplicates,
		ScrapedPath:  store.Path(storage.ScrapedFile),
		CollatedPath: store.Path(storage.CollatedFile),
	}
	for i, b := range c.Buckets {
		summary.Buckets[i] = len(b)
	}
	return summary, nil
}

// collateFromCache rebuilds the buckets from a previous scrape.
func collateFromCache(store *storage.Storage) (*Summary, error) {
	records, err := store.LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	return collateAndSave(store, records)
}
