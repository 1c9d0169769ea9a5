package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/trico-scraper/internal/collate"
	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

func sampleRecords(t *testing.T) []*course.Record {
	t.Helper()
	mts, err := meeting.Parse("MWF 11:30am-12:20pm, TH 1:00pm-2:20pm")
	if err != nil {
		t.Fatal(err)
	}
	instructor := "Doe, Jane"
	return []*course.Record{
		{
			Attributes: course.Attributes{
				RegistrationID:       "ECON 001 01",
				Department:           "Economics",
				CourseTitle:          "Introduction to Economics",
				Credit:               "1.0",
				RoomLocation:         "Kohlberg 116",
				Semester:             "Fall_2018",
				TimeAndDays:          "MWF 11:30am-12:20pm, TH 1:00pm-2:20pm",
				Campus:               "Swarthmore",
				AdditionalCourseInfo: "CRN: 100  DIST: SO",
				Instructor:           &instructor,
				Extra:                map[string]string{"Lab Sections": "None"},
			},
			AdditionalInfo: course.AdditionalInfo{CRN: "100", Distribution: "SO"},
			Subject:        "ECON",
			Number:         "001",
			Section:        "01",
			Meetings:       mts,
			URL:            "https://example.edu/100",
		},
		{
			Attributes:     course.Attributes{RegistrationID: "MATH 015 01", Department: "Mathematics"},
			AdditionalInfo: course.AdditionalInfo{CRN: "200"},
			Subject:        "MATH",
			Number:         "015",
			Section:        "01",
			Meetings:       []meeting.Time{},
			URL:            "https://example.edu/200",
		},
	}
}

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data directory not created: %v", err)
	}
	if got := s.Path(ScrapedFile); got != filepath.Join(dir, ScrapedFile) {
		t.Errorf("Path() = %q", got)
	}
}

func TestNew_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	s, err := New("~/trico-data")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if want := filepath.Join(home, "trico-data"); s.dataDir != want {
		t.Errorf("dataDir = %q, want %q", s.dataDir, want)
	}
}

func TestRecords_SaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	records := sampleRecords(t)
	if err := s.SaveRecords(records); err != nil {
		t.Fatalf("SaveRecords() error: %v", err)
	}

	got, err := s.LoadRecords()
	if err != nil {
		t.Fatalf("LoadRecords() error: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("LoadRecords() = %+v, want %+v", got, records)
	}

	data, err := os.ReadFile(s.Path(ScrapedFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"Registration ID"`, `"Additional Course Info"`, `"CRN"`, `"DT"`, `"Subj"`, `"URL"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("%s missing key %s", ScrapedFile, key)
		}
	}
}

func TestRecords_Missing(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.LoadRecords()
	if !errors.Is(err, ErrNoCache) {
		t.Errorf("LoadRecords() error = %v, want ErrNoCache", err)
	}
}

func TestRecords_Corrupt(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(ScrapedFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err = s.LoadRecords()
	if err == nil || errors.Is(err, ErrNoCache) {
		t.Errorf("LoadRecords() error = %v, want parse error", err)
	}
}

func TestCollation_SaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	c, err := collate.Collate(sampleRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCollation(c.Buckets); err != nil {
		t.Fatalf("SaveCollation() error: %v", err)
	}

	got, err := s.LoadCollation()
	if err != nil {
		t.Fatalf("LoadCollation() error: %v", err)
	}
	if !reflect.DeepEqual(got, c.Buckets) {
		t.Errorf("LoadCollation() = %+v, want %+v", got, c.Buckets)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path(CollatedFile)))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestSaveCollation_NilBuckets(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCollation(collate.Buckets{}); err != nil {
		t.Fatalf("SaveCollation() error: %v", err)
	}

	data, err := os.ReadFile(s.Path(CollatedFile))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("empty buckets should be objects, got %s", data)
	}
}
