package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/trico-scraper/internal/collate"
)

const (
	ProductID = "-//trico-scraper//course calendar//EN"
	UIDDomain = "trico.haverford.edu"
)

// ErrTerm is returned when a term has no usable date range.
var ErrTerm = errors.New("invalid term")

// Term bounds the recurrence of every generated event.
type Term struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (t Term) location() *time.Location {
	if t.Location == nil {
		return time.Local
	}
	return t.Location
}

var byDay = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// GenerateICS builds a calendar for the timed records in buckets. Events are
// emitted in bucket order, then by CRN.
func GenerateICS(buckets collate.Buckets, term Term, now time.Time) (string, error) {
	if term.Start.IsZero() || term.End.IsZero() || term.End.Before(term.Start) {
		return "", fmt.Errorf("%w: %s to %s", ErrTerm, term.Start.Format("2006-01-02"), term.End.Format("2006-01-02"))
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)

	for bucket, records := range buckets {
		ids := make([]string, 0, len(records))
		for id := range records {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			rec := records[id]
			if rec.Slot == nil {
				continue
			}
			if err := addEvent(cal, bucket, rec, term, now); err != nil {
				return "", fmt.Errorf("calendar entry for %s: %w", id, err)
			}
		}
	}

	return cal.Serialize(), nil
}

func addEvent(cal *ics.Calendar, bucket int, rec *collate.Record, term Term, now time.Time) error {
	days, err := weekdays(rec.DOW)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("no meeting days in %q", rec.DOW)
	}

	loc := term.location()
	first := firstMeeting(term.Start.In(loc), days)
	start, err := atClock(first, rec.Start)
	if err != nil {
		return err
	}
	end, err := atClock(first, rec.End)
	if err != nil {
		return err
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	until := time.Date(term.End.Year(), term.End.Month(), term.End.Day(), 23, 59, 59, 0, loc)

	codes := make([]string, len(days))
	for i, d := range days {
		codes[i] = byDay[d]
	}

	event := cal.AddEvent(fmt.Sprintf("%s-%d@%s", rec.ID, bucket, UIDDomain))
	event.SetDtStampTime(now)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(fmt.Sprintf("%s %s", rec.Name, rec.Title))
	event.SetLocation(rec.Room)
	event.SetDescription(description(rec))
	event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		strings.Join(codes, ","), until.UTC().Format("20060102T150405Z")))
	return nil
}

func description(rec *collate.Record) string {
	lines := []string{
		"Section " + rec.Section,
		"Instructor: " + rec.Instructor,
		"CRN " + rec.ID,
	}
	if rec.Comment != "" {
		lines = append(lines, rec.Comment)
	}
	return strings.Join(lines, " | ")
}

// weekdays decodes the collated dow string, e.g. "[1, 3, 5]".
func weekdays(dow string) ([]time.Weekday, error) {
	var idx []int
	if err := json.Unmarshal([]byte(dow), &idx); err != nil {
		return nil, fmt.Errorf("parsing day list %q: %w", dow, err)
	}

	days := make([]time.Weekday, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i > 6 {
			return nil, fmt.Errorf("day index %d out of range", i)
		}
		days = append(days, time.Weekday(i))
	}
	return days, nil
}

// firstMeeting returns the first date on or after from that falls on one of days.
func firstMeeting(from time.Time, days []time.Weekday) time.Time {
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i < 7; i++ {
		for _, wd := range days {
			if d.Weekday() == wd {
				return d
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// atClock places a 24-hour "HH:MM" clock reading on day.
func atClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing clock time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
