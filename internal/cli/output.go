package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/trico-scraper/internal/collate"
	"github.com/pfrederiksen/trico-scraper/internal/harvest"
	"github.com/pfrederiksen/trico-scraper/internal/meeting"
	"github.com/pfrederiksen/trico-scraper/internal/query"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Summary describes what a scrape or collate run wrote.
type Summary struct {
	CheckedAt    time.Time           `json:"checked_at"`
	Query        query.SearchQuery   `json:"query"`
	Hits         int                 `json:"hits"`
	Links        int                 `json:"links"`
	Records      int                 `json:"records"`
	Buckets      [3]int              `json:"buckets"`
	Entries      int                 `json:"entries"`
	Duplicates   []collate.Duplicate `json:"duplicates,omitempty"`
	Failures     []harvest.Failure   `json:"failures,omitempty"`
	ScrapedPath  string              `json:"scraped_path"`
	CollatedPath string              `json:"collated_path"`
}

// WriteSummary writes the run summary in the specified format
func WriteSummary(w io.Writer, s *Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		return writeSummaryText(w, s)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteMeetings writes parsed meeting times in the specified format
func WriteMeetings(w io.Writer, meetings []meeting.Time, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, meetings)
	case FormatText:
		for i, m := range meetings {
			fmt.Fprintf(w, "%d: days=%s dow=%s time=%s start=%s end=%s\n",
				i+1, m.DayString(), m.DOWString(), m.Range, m.Start, m.End)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeSummaryText(w io.Writer, s *Summary) error {
	if s.Hits > 0 || s.Links > 0 {
		fmt.Fprintf(w, "Hits: %d  Links: %d  Records: %d\n", s.Hits, s.Links, s.Records)
	} else {
		fmt.Fprintf(w, "Records: %d\n", s.Records)
	}
	fmt.Fprintf(w, "Buckets: %d timed, %d untimed, %d second meeting (%d entries)\n",
		s.Buckets[collate.BucketPrimary], s.Buckets[collate.BucketUntimed], s.Buckets[collate.BucketSecondary], s.Entries)

	if len(s.Duplicates) > 0 {
		fmt.Fprintf(w, "\nDuplicate registration numbers (%d):\n", len(s.Duplicates))
		for _, d := range s.Duplicates {
			fmt.Fprintf(w, "  bucket %d: %s (%s)\n", d.Bucket, d.ID, d.URL)
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures (%d):\n", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  %s %s: %v\n", f.Stage, f.Target, f.Err)
		}
	}

	fmt.Fprintf(w, "\nWrote %s\n", s.ScrapedPath)
	fmt.Fprintf(w, "Wrote %s\n", s.CollatedPath)
	return nil
}
