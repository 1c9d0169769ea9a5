package meeting

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrGrammar is the root of every parse failure in this package.
	ErrGrammar = errors.New("meeting time does not match grammar")
	// ErrNoDays is returned when a group omits its days and nothing precedes it.
	ErrNoDays = fmt.Errorf("%w: no days given and none to inherit", ErrGrammar)
	// ErrUnknownDay is returned when the day run holds characters that are not day tokens.
	ErrUnknownDay = fmt.Errorf("%w: unrecognized day characters", ErrGrammar)
)

// ParseError reports which group of which input failed.
type ParseError struct {
	Input string
	Group string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("parsing meeting time %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("parsing meeting time %q at %q: %v", e.Input, e.Group, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Time is one weekly meeting of a course section.
type Time struct {
	Tokens []string       `json:"days"`     // day tokens as printed, e.g. ["M", "W", "F"]
	Days   []time.Weekday `json:"dow"`      // Sunday=0 ... Saturday=6
	Range  string         `json:"time_str"` // e.g. "11:30 am-12:20 pm"
	Start  string         `json:"start"`    // 24-hour "H:MM"
	End    string         `json:"end"`
}

// DayString joins the day tokens with spaces ("M W F").
func (t Time) DayString() string {
	return strings.Join(t.Tokens, " ")
}

// DOWString renders the day indices the way the scheduler expects them: "[1, 3, 5]".
func (t Time) DOWString() string {
	parts := make([]string, len(t.Days))
	for i, d := range t.Days {
		parts[i] = strconv.Itoa(int(d))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// dayTokens maps the abbreviations used by the catalog to weekdays.
var dayTokens = map[string]time.Weekday{
	"U":  time.Sunday,
	"M":  time.Monday,
	"T":  time.Tuesday,
	"W":  time.Wednesday,
	"TH": time.Thursday,
	"F":  time.Friday,
	"S":  time.Saturday,
}

// dayCandidates holds the keys of dayTokens, longest first.
var dayCandidates = func() []string {
	keys := make([]string, 0, len(dayTokens))
	for k := range dayTokens {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// groupPattern: optional day run, one space, then h:mm(am|pm)-h:mm(am|pm).
var groupPattern = regexp.MustCompile(`^(?:([A-Za-z]+) )?(\d{1,2}):(\d{2})([ap]m)-(\d{1,2}):(\d{2})([ap]m)$`)

// Tokenize splits a run of day characters into day tokens. Every character of run
// must belong to exactly one token.
func Tokenize(run string) ([]string, error) {
	upper := strings.ToUpper(run)
	tokens := make([]string, 0, len(upper))
	var unmatched strings.Builder

	for i := 0; i < len(upper); {
		tok := matchDay(upper[i:])
		if tok == "" {
			unmatched.WriteByte(upper[i])
			i++
			continue
		}
		tokens = append(tokens, tok)
		i += len(tok)
	}

	if len(strings.Join(tokens, "")) != len(upper) {
		return nil, fmt.Errorf("%w: %q in %q", ErrUnknownDay, unmatched.String(), run)
	}
	return tokens, nil
}

func matchDay(s string) string {
	for _, cand := range dayCandidates {
		if strings.HasPrefix(s, cand) {
			return cand
		}
	}
	return ""
}

// Parse converts a full "Time And Days" value into its meetings, in input order.
// Stray commas or spaces at either end are ignored. Any group that does not match
// fails the whole string.
func Parse(s string) ([]Time, error) {
	trimmed := strings.Trim(s, ", \t\r\n")
	if trimmed == "" {
		return nil, &ParseError{Input: s, Err: fmt.Errorf("%w: empty", ErrGrammar)}
	}

	groups := strings.Split(trimmed, ",")
	meetings := make([]Time, 0, len(groups))
	days := ""

	for _, group := range groups {
		group = strings.TrimSpace(group)

		m := groupPattern.FindStringSubmatch(group)
		if m == nil {
			return nil, &ParseError{Input: s, Group: group, Err: ErrGrammar}
		}

		if m[1] != "" {
			days = m[1]
		} else if days == "" {
			return nil, &ParseError{Input: s, Group: group, Err: ErrNoDays}
		}

		tokens, err := Tokenize(days)
		if err != nil {
			return nil, &ParseError{Input: s, Group: group, Err: err}
		}

		start, err := to24Hour(m[2], m[3], m[4])
		if err != nil {
			return nil, &ParseError{Input: s, Group: group, Err: err}
		}
		end, err := to24Hour(m[5], m[6], m[7])
		if err != nil {
			return nil, &ParseError{Input: s, Group: group, Err: err}
		}

		weekdays := make([]time.Weekday, len(tokens))
		for i, tok := range tokens {
			weekdays[i] = dayTokens[tok]
		}

		meetings = append(meetings, Time{
			Tokens: tokens,
			Days:   weekdays,
			Range:  fmt.Sprintf("%s:%s %s-%s:%s %s", m[2], m[3], m[4], m[5], m[6], m[7]),
			Start:  start,
			End:    end,
		})
	}

	return meetings, nil
}

// to24Hour converts an hour/minute/meridiem triple to "H:MM".
// Only pm hours move: 12pm stays 12, other pm hours add 12. am hours pass through,
// so 12am comes out as "12:MM"; the scheduler has always consumed it that way.
func to24Hour(hour, minute, meridiem string) (string, error) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 1 || h > 12 {
		return "", fmt.Errorf("%w: hour %q out of range", ErrGrammar, hour)
	}
	if mm, err := strconv.Atoi(minute); err != nil || mm > 59 {
		return "", fmt.Errorf("%w: minute %q out of range", ErrGrammar, minute)
	}

	if meridiem == "pm" && h != 12 {
		h += 12
	}
	return fmt.Sprintf("%d:%s", h, minute), nil
}
