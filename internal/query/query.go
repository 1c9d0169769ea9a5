package query

import (
	"context"
	"fmt"
	"net/url"

	querystring "github.com/google/go-querystring/query"
)

// PageSize is the number of results the search interface returns per page.
const PageSize = 50

// Any matches every value of a pattern field.
const Any = "."

// SearchQuery is one course search. Empty fields match anything.
type SearchQuery struct {
	Campuses     []string `json:"campus,omitempty" url:"campus,omitempty"`
	Departments  []string `json:"dept,omitempty" url:"dept,omitempty"`
	Semesters    []string `json:"smstr,omitempty" url:"smstr,omitempty"`
	CourseNumber string   `json:"crsnum,omitempty" url:"crsnum"`
	Instructor   string   `json:"instr,omitempty" url:"instr"`
	MeetDay      string   `json:"meetday,omitempty" url:"meetday"`
	MeetTimes    []string `json:"meettime,omitempty" url:"meettime,omitempty"`
	SearchPhrase string   `json:"srch_frz,omitempty" url:"srch_frz"`
}

// form is the full search form submission: the fixed fields plus a query whose
// empty patterns have been replaced by Any.
type form struct {
	CGIFields string `url:".cgifields"`
	Search    string `url:"Search"`
	SearchQuery
	Offset *int `url:"run_tot,omitempty"`
}

// Sets are the campus, department and semester values the search form offers.
type Sets struct {
	Campuses    []string
	Departments []string
	Semesters   []string
}

// Lookup supplies the default sets used when a query leaves them empty.
type Lookup interface {
	Lookup(ctx context.Context) (Sets, error)
}

// StaticLookup serves fixed sets.
type StaticLookup Sets

// Lookup returns the fixed sets.
func (s StaticLookup) Lookup(ctx context.Context) (Sets, error) {
	return Sets(s), nil
}

// NeedsDefaults reports whether any of the campus, department or semester sets is empty.
func (q SearchQuery) NeedsDefaults() bool {
	return len(q.Campuses) == 0 || len(q.Departments) == 0 || len(q.Semesters) == 0
}

// Resolve fills the empty sets of q from lookup. The lookup is only consulted when
// something is missing.
func (q SearchQuery) Resolve(ctx context.Context, lookup Lookup) (SearchQuery, error) {
	if !q.NeedsDefaults() {
		return q, nil
	}
	if lookup == nil {
		return q, fmt.Errorf("query needs default campus/department/semester sets but no lookup is configured")
	}

	sets, err := lookup.Lookup(ctx)
	if err != nil {
		return q, fmt.Errorf("looking up default sets: %w", err)
	}

	if len(q.Campuses) == 0 {
		q.Campuses = sets.Campuses
	}
	if len(q.Departments) == 0 {
		q.Departments = sets.Departments
	}
	if len(q.Semesters) == 0 {
		q.Semesters = sets.Semesters
	}
	return q, nil
}

func orAny(s string) string {
	if s == "" {
		return Any
	}
	return s
}

func (q SearchQuery) submission(offset *int) form {
	q.CourseNumber = orAny(q.CourseNumber)
	q.Instructor = orAny(q.Instructor)
	q.MeetDay = orAny(q.MeetDay)
	q.SearchPhrase = orAny(q.SearchPhrase)
	return form{
		CGIFields:   "campus,dept,smstr,meettime",
		Search:      "Search",
		SearchQuery: q,
		Offset:      offset,
	}
}

// encode only fails for non-struct input, which form never is.
func encode(f form) url.Values {
	v, err := querystring.Values(f)
	if err != nil {
		panic(fmt.Sprintf("encoding search form: %v", err))
	}
	return v
}

// Params encodes q the way the search form submits it.
func (q SearchQuery) Params() url.Values {
	return encode(q.submission(nil))
}

// PageParams returns the parameters for the results page starting at offset.
func (q SearchQuery) PageParams(offset int) url.Values {
	return encode(q.submission(&offset))
}

// Offsets lists the page offsets needed to cover hits results.
func Offsets(hits, pageSize int) []int {
	if hits <= 0 || pageSize <= 0 {
		return nil
	}
	offsets := make([]int, 0, (hits+pageSize-1)/pageSize)
	for off := 0; off < hits; off += pageSize {
		offsets = append(offsets, off)
	}
	return offsets
}
