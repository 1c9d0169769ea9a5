package collate

import (
	"fmt"

	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

// Bucket indices.
const (
	BucketPrimary   = 0
	BucketUntimed   = 1
	BucketSecondary = 2
)

// Slot is the meeting-time part of a Record.
type Slot struct {
	Days  string `json:"days"`
	Time  string `json:"time"`
	Start string `json:"start"`
	End   string `json:"end"`
	DOW   string `json:"dow"`
}

// Record is the scheduler's view of one section at one meeting time.
type Record struct {
	Name       string `json:"name"`
	Comment    string `json:"comment"`
	ID         string `json:"id"`
	Ref        string `json:"ref"`
	Subject    string `json:"subj"`
	Number     string `json:"num"`
	Section    string `json:"sec"`
	Title      string `json:"title"`
	Credit     string `json:"cred"`
	Dist       string `json:"dist"`
	Limit      string `json:"lim"`
	Instructor string `json:"instruct"`
	Room       string `json:"rm"`
	*Slot
}

// Buckets marshals as a JSON array of three objects.
type Buckets [3]map[string]*Record

// Duplicate reports a CRN that was written to a bucket twice. The later record wins.
type Duplicate struct {
	Bucket int    `json:"bucket"`
	ID     string `json:"id"`
	URL    string `json:"url"`
}

// Collation is the output of Collate.
type Collation struct {
	Buckets    Buckets
	Duplicates []Duplicate
}

// Collate buckets records. A record with more than course.MaxMeetings meetings is
// rejected. Input records are not modified.
func Collate(records []*course.Record) (*Collation, error) {
	c := &Collation{}
	for i := range c.Buckets {
		c.Buckets[i] = make(map[string]*Record)
	}

	for _, rec := range records {
		switch n := len(rec.Meetings); {
		case n == 0:
			c.put(BucketUntimed, rec, nil)
		case n == 1:
			c.put(BucketPrimary, rec, &rec.Meetings[0])
		case n == course.MaxMeetings:
			c.put(BucketPrimary, rec, &rec.Meetings[0])
			c.put(BucketSecondary, rec, &rec.Meetings[1])
		default:
			return nil, fmt.Errorf("%w: %s has %d meeting times, at most %d supported",
				course.ErrCardinality, rec.URL, n, course.MaxMeetings)
		}
	}

	return c, nil
}

func (c *Collation) put(bucket int, rec *course.Record, mt *meeting.Time) {
	if _, exists := c.Buckets[bucket][rec.CRN]; exists {
		c.Duplicates = append(c.Duplicates, Duplicate{Bucket: bucket, ID: rec.CRN, URL: rec.URL})
	}
	c.Buckets[bucket][rec.CRN] = newRecord(rec, mt)
}

func newRecord(rec *course.Record, mt *meeting.Time) *Record {
	out := &Record{
		Name:       fmt.Sprintf("%s %s", rec.Subject, rec.Number),
		Comment:    rec.Comment,
		ID:         rec.CRN,
		Ref:        rec.CRN,
		Subject:    fmt.Sprintf("%s (%s)", rec.Department, rec.Subject),
		Number:     rec.Number,
		Section:    rec.Section,
		Title:      rec.CourseTitle,
		Credit:     rec.Credit,
		Dist:       rec.Distribution,
		Limit:      rec.Limit,
		Instructor: rec.InstructorOrDefault(),
		Room:       rec.RoomLocation,
	}
	if mt != nil {
		out.Slot = &Slot{
			Days:  mt.DayString(),
			Time:  mt.Range,
			Start: mt.Start,
			End:   mt.End,
			DOW:   mt.DOWString(),
		}
	}
	return out
}

// Len returns the number of records across all buckets.
func (b Buckets) Len() int {
	n := 0
	for _, m := range b {
		n += len(m)
	}
	return n
}
