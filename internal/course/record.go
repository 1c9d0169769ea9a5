package course

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

var (
	// ErrShape means the detail page is not laid out the way extraction expects.
	ErrShape = errors.New("unexpected page shape")
	// ErrCardinality means a field split into the wrong number of parts.
	ErrCardinality = errors.New("unexpected field cardinality")
)

// Row labels on a detail page.
const (
	LabelRegistrationID = "Registration ID"
	LabelDepartment     = "Department"
	LabelCourseTitle    = "Course Title"
	LabelCredit         = "Credit"
	LabelRoomLocation   = "Room Location"
	LabelSemester       = "Semester"
	LabelTimeAndDays    = "Time And Days"
	LabelCampus         = "Campus"
	LabelAdditionalInfo = "Additional Course Info"
	LabelInstructor     = "Instructor"
)

// MaxMeetings is the largest number of weekly meetings a record may carry.
const MaxMeetings = 2

// DefaultInstructor stands in for a missing Instructor row.
const DefaultInstructor = "STAFF"

var requiredLabels = []string{
	LabelRegistrationID,
	LabelDepartment,
	LabelCourseTitle,
	LabelCredit,
	LabelRoomLocation,
	LabelSemester,
	LabelTimeAndDays,
	LabelCampus,
	LabelAdditionalInfo,
}

// Row is one label/value pair from a detail page, already trimmed.
type Row struct {
	Label string
	Value string
}

// Attributes are the labelled rows of a detail page.
type Attributes struct {
	RegistrationID       string            `json:"Registration ID"`
	Department           string            `json:"Department"`
	CourseTitle          string            `json:"Course Title"`
	Credit               string            `json:"Credit"`
	RoomLocation         string            `json:"Room Location"`
	Semester             string            `json:"Semester"`
	TimeAndDays          string            `json:"Time And Days"`
	Campus               string            `json:"Campus"`
	AdditionalCourseInfo string            `json:"Additional Course Info"`
	Instructor           *string           `json:"Instructor,omitempty"` // nil when the page has no Instructor row
	Extra                map[string]string `json:"Extra,omitempty"`      // rows with any other label
}

// InstructorOrDefault returns the instructor, or STAFF when the row was absent.
func (a Attributes) InstructorOrDefault() string {
	if a.Instructor == nil {
		return DefaultInstructor
	}
	return *a.Instructor
}

// AdditionalInfo holds the sub-fields packed into the Additional Course Info row.
// Missing sub-fields are empty strings.
type AdditionalInfo struct {
	CRN          string `json:"CRN"`
	Limit        string `json:"LIM"`
	Enrolled     string `json:"CUR"`
	Distribution string `json:"DIST"`
	Comment      string `json:"comment"`
}

// Record is one fully extracted course section.
type Record struct {
	Attributes
	AdditionalInfo
	Subject  string         `json:"Subj"`
	Number   string         `json:"Num"`
	Section  string         `json:"Sec"`
	Meetings []meeting.Time `json:"DT"`
	URL      string         `json:"URL"`
}

var (
	crnPattern      = regexp.MustCompile(`CRN: ([0-9]*)`)
	limitPattern    = regexp.MustCompile(`ENR LIM: ([0-9]*)`)
	enrolledPattern = regexp.MustCompile(`CUR ENR: ([0-9]*)`)
	distPattern     = regexp.MustCompile(`DIST: (.*)`)
)

// ParseAdditionalInfo splits the Additional Course Info blob. The first line carries
// the labelled sub-fields and an optional second line is the comment. An empty blob
// or one with more than two lines is rejected.
func ParseAdditionalInfo(blob string) (AdditionalInfo, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return AdditionalInfo{}, fmt.Errorf("%w: additional course info has no lines", ErrCardinality)
	}

	lines := strings.Split(blob, "\n")
	if len(lines) > 2 {
		return AdditionalInfo{}, fmt.Errorf("%w: additional course info has %d lines", ErrCardinality, len(lines))
	}

	info := AdditionalInfo{
		CRN:          firstGroup(crnPattern, blob),
		Limit:        firstGroup(limitPattern, blob),
		Enrolled:     firstGroup(enrolledPattern, blob),
		Distribution: strings.TrimSpace(firstGroup(distPattern, blob)),
	}
	if len(lines) == 2 {
		info.Comment = strings.TrimSpace(lines[1])
	}
	return info, nil
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// SplitRegistrationID splits "ECON 101 01" into subject, number and section.
func SplitRegistrationID(id string) (subject, number, section string, err error) {
	parts := strings.Fields(id)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: registration id %q has %d tokens, want 3", ErrCardinality, id, len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}

// attributesFromRows maps rows onto Attributes and fails when a required label is missing.
func attributesFromRows(rows []Row) (Attributes, error) {
	var attrs Attributes
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		seen[row.Label] = true
		switch row.Label {
		case LabelRegistrationID:
			attrs.RegistrationID = row.Value
		case LabelDepartment:
			attrs.Department = row.Value
		case LabelCourseTitle:
			attrs.CourseTitle = row.Value
		case LabelCredit:
			attrs.Credit = row.Value
		case LabelRoomLocation:
			attrs.RoomLocation = row.Value
		case LabelSemester:
			attrs.Semester = row.Value
		case LabelTimeAndDays:
			attrs.TimeAndDays = row.Value
		case LabelCampus:
			attrs.Campus = row.Value
		case LabelAdditionalInfo:
			attrs.AdditionalCourseInfo = row.Value
		case LabelInstructor:
			v := row.Value
			attrs.Instructor = &v
		default:
			if attrs.Extra == nil {
				attrs.Extra = make(map[string]string)
			}
			attrs.Extra[row.Label] = row.Value
		}
	}

	var missing []string
	for _, label := range requiredLabels {
		if !seen[label] {
			missing = append(missing, label)
		}
	}
	if len(missing) > 0 {
		return Attributes{}, fmt.Errorf("%w: missing %s", ErrShape, strings.Join(missing, ", "))
	}

	return attrs, nil
}

// FromRows builds a Record from the rows of one detail page.
func FromRows(rows []Row, sourceURL string) (*Record, error) {
	attrs, err := attributesFromRows(rows)
	if err != nil {
		return nil, err
	}

	info, err := ParseAdditionalInfo(attrs.AdditionalCourseInfo)
	if err != nil {
		return nil, err
	}
	if info.CRN == "" {
		return nil, fmt.Errorf("%w: additional course info has no CRN", ErrShape)
	}

	subject, number, section, err := SplitRegistrationID(attrs.RegistrationID)
	if err != nil {
		return nil, err
	}

	meetings := []meeting.Time{}
	if attrs.TimeAndDays != "" {
		meetings, err = meeting.Parse(attrs.TimeAndDays)
		if err != nil {
			return nil, err
		}
		if len(meetings) > MaxMeetings {
			return nil, fmt.Errorf("%w: %d meeting times in %q, at most %d supported",
				ErrCardinality, len(meetings), attrs.TimeAndDays, MaxMeetings)
		}
	}

	return &Record{
		Attributes:     attrs,
		AdditionalInfo: info,
		Subject:        subject,
		Number:         number,
		Section:        section,
		Meetings:       meetings,
		URL:            sourceURL,
	}, nil
}
