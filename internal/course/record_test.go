package course

import (
	"errors"
	"strings"
	"testing"

	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

func TestParseAdditionalInfo(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want AdditionalInfo
	}{
		{
			name: "all fields with comment",
			blob: "CRN: 12345  ENR LIM: 20  CUR ENR: 18  DIST: SO\nPermission required",
			want: AdditionalInfo{
				CRN:          "12345",
				Limit:        "20",
				Enrolled:     "18",
				Distribution: "SO",
				Comment:      "Permission required",
			},
		},
		{
			name: "no comment",
			blob: "CRN: 54321  ENR LIM: 35  CUR ENR: 0  DIST: NS, W",
			want: AdditionalInfo{
				CRN:          "54321",
				Limit:        "35",
				Enrolled:     "0",
				Distribution: "NS, W",
			},
		},
		{
			name: "missing sub-fields default to empty",
			blob: "CRN: 777",
			want: AdditionalInfo{CRN: "777"},
		},
		{
			name: "surrounding whitespace",
			blob: "  CRN: 1  ENR LIM: 2  \n  Lab fee  ",
			want: AdditionalInfo{CRN: "1", Limit: "2", Comment: "Lab fee"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdditionalInfo(tt.blob)
			if err != nil {
				t.Fatalf("ParseAdditionalInfo() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAdditionalInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAdditionalInfo_LineCount(t *testing.T) {
	for _, blob := range []string{"", "   ", "CRN: 1\ncomment\nextra"} {
		_, err := ParseAdditionalInfo(blob)
		if !errors.Is(err, ErrCardinality) {
			t.Errorf("ParseAdditionalInfo(%q) error = %v, want ErrCardinality", blob, err)
		}
	}
}

func TestSplitRegistrationID(t *testing.T) {
	subj, num, sec, err := SplitRegistrationID("  ECON  101 01 ")
	if err != nil {
		t.Fatalf("SplitRegistrationID() error: %v", err)
	}
	if subj != "ECON" || num != "101" || sec != "01" {
		t.Errorf("SplitRegistrationID() = %q %q %q", subj, num, sec)
	}

	for _, id := range []string{"", "ECON 101", "ECON 101 01 A"} {
		if _, _, _, err := SplitRegistrationID(id); !errors.Is(err, ErrCardinality) {
			t.Errorf("SplitRegistrationID(%q) error = %v, want ErrCardinality", id, err)
		}
	}
}

func baseRows(timeAndDays string) []Row {
	return []Row{
		{LabelRegistrationID, "ECON 101 01"},
		{LabelDepartment, "Economics"},
		{LabelCourseTitle, "Introduction to Economics"},
		{LabelCredit, "1.0"},
		{LabelRoomLocation, "Kohlberg 116"},
		{LabelSemester, "Fall 2018"},
		{LabelTimeAndDays, timeAndDays},
		{LabelCampus, "Swarthmore"},
		{LabelAdditionalInfo, "CRN: 12345  ENR LIM: 20  CUR ENR: 18  DIST: SO\nPermission required"},
	}
}

func TestFromRows(t *testing.T) {
	rows := append(baseRows("MWF 11:30am-12:20pm"), Row{"Lab Sections", "None"})

	rec, err := FromRows(rows, "https://example.edu/course/1")
	if err != nil {
		t.Fatalf("FromRows() error: %v", err)
	}

	if rec.Subject != "ECON" || rec.Number != "101" || rec.Section != "01" {
		t.Errorf("registration id split = %q %q %q", rec.Subject, rec.Number, rec.Section)
	}
	if rec.CRN != "12345" {
		t.Errorf("CRN = %q, want 12345", rec.CRN)
	}
	if rec.Comment != "Permission required" {
		t.Errorf("Comment = %q", rec.Comment)
	}
	if len(rec.Meetings) != 1 || rec.Meetings[0].Start != "11:30" {
		t.Errorf("Meetings = %+v", rec.Meetings)
	}
	if rec.URL != "https://example.edu/course/1" {
		t.Errorf("URL = %q", rec.URL)
	}
	if rec.Instructor != nil {
		t.Errorf("Instructor = %q, want nil", *rec.Instructor)
	}
	if got := rec.InstructorOrDefault(); got != DefaultInstructor {
		t.Errorf("InstructorOrDefault() = %q, want %q", got, DefaultInstructor)
	}
	if rec.Extra["Lab Sections"] != "None" {
		t.Errorf("Extra = %v, want Lab Sections kept", rec.Extra)
	}
}

func TestFromRows_Instructor(t *testing.T) {
	rows := append(baseRows(""), Row{LabelInstructor, "Smith, J."})

	rec, err := FromRows(rows, "u")
	if err != nil {
		t.Fatalf("FromRows() error: %v", err)
	}
	if got := rec.InstructorOrDefault(); got != "Smith, J." {
		t.Errorf("InstructorOrDefault() = %q", got)
	}
	if rec.Meetings == nil || len(rec.Meetings) != 0 {
		t.Errorf("Meetings = %#v, want empty non-nil slice", rec.Meetings)
	}
}

func TestFromRows_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    func() []Row
		wantErr error
	}{
		{
			name: "missing additional info",
			rows: func() []Row {
				return baseRows("")[:8]
			},
			wantErr: ErrShape,
		},
		{
			name: "no CRN",
			rows: func() []Row {
				rows := baseRows("")
				rows[8].Value = "ENR LIM: 20  CUR ENR: 18  DIST: SO"
				return rows
			},
			wantErr: ErrShape,
		},
		{
			name: "bad registration id",
			rows: func() []Row {
				rows := baseRows("")
				rows[0].Value = "ECON101"
				return rows
			},
			wantErr: ErrCardinality,
		},
		{
			name: "three meeting times",
			rows: func() []Row {
				return baseRows("M 9:00am-9:50am, W 10:00am-10:50am, F 11:00am-11:50am")
			},
			wantErr: ErrCardinality,
		},
		{
			name: "grammar failure",
			rows: func() []Row {
				return baseRows("MX 9:00am-9:50am")
			},
			wantErr: meeting.ErrGrammar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows(tt.rows(), "u")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromRows() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromRows_MissingLabelsNamed(t *testing.T) {
	rows := baseRows("")[2:]

	_, err := FromRows(rows, "u")
	if err == nil {
		t.Fatal("FromRows() expected error")
	}
	for _, label := range []string{LabelRegistrationID, LabelDepartment} {
		if !strings.Contains(err.Error(), label) {
			t.Errorf("error %q should name %q", err.Error(), label)
		}
	}
}
