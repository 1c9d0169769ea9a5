package query

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParams_Defaults(t *testing.T) {
	q := SearchQuery{
		Semesters:   []string{"Fall_2018"},
		Campuses:    []string{"Swarthmore", "Haverford"},
		Departments: []string{"ECON"},
	}

	v := q.Params()

	want := map[string]string{
		".cgifields": "campus,dept,smstr,meettime",
		"Search":     "Search",
		"crsnum":     Any,
		"instr":      Any,
		"meetday":    Any,
		"srch_frz":   Any,
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("Params()[%s] = %q, want %q", k, got, w)
		}
	}

	if got := v["campus"]; !reflect.DeepEqual(got, []string{"Swarthmore", "Haverford"}) {
		t.Errorf("campus = %v", got)
	}
	if _, ok := v["meettime"]; ok {
		t.Error("meettime should be absent when no times are given")
	}
	if _, ok := v["run_tot"]; ok {
		t.Error("run_tot should only be set by PageParams")
	}
}

func TestPageParams(t *testing.T) {
	q := SearchQuery{CourseNumber: "101", MeetTimes: []string{"a", "b"}}

	v := q.PageParams(100)
	if v.Get("run_tot") != "100" {
		t.Errorf("run_tot = %q, want 100", v.Get("run_tot"))
	}
	if v.Get("crsnum") != "101" {
		t.Errorf("crsnum = %q, want 101", v.Get("crsnum"))
	}
	if !reflect.DeepEqual(v["meettime"], []string{"a", "b"}) {
		t.Errorf("meettime = %v", v["meettime"])
	}
}

func TestPageParams_FirstPage(t *testing.T) {
	q := SearchQuery{
		Semesters:   []string{"Fall_2018", "Spring_2019"},
		Departments: []string{"ECON", "MATH"},
	}

	v := q.PageParams(0)
	if got, ok := v["run_tot"]; !ok || !reflect.DeepEqual(got, []string{"0"}) {
		t.Errorf("run_tot = %v, want [0]", got)
	}
	if !reflect.DeepEqual(v["smstr"], []string{"Fall_2018", "Spring_2019"}) {
		t.Errorf("smstr = %v, want repeated keys", v["smstr"])
	}
	if !reflect.DeepEqual(v["dept"], []string{"ECON", "MATH"}) {
		t.Errorf("dept = %v, want repeated keys", v["dept"])
	}
	if _, ok := v["campus"]; ok {
		t.Error("campus should be absent when the set is empty")
	}

	encoded := v.Encode()
	for _, want := range []string{".cgifields=campus%2Cdept%2Csmstr%2Cmeettime", "smstr=Fall_2018&smstr=Spring_2019", "srch_frz=."} {
		if !strings.Contains(encoded, want) {
			t.Errorf("Encode() = %q, missing %q", encoded, want)
		}
	}
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		hits int
		want []int
	}{
		{0, nil},
		{1, []int{0}},
		{50, []int{0}},
		{51, []int{0, 50}},
		{120, []int{0, 50, 100}},
	}

	for _, tt := range tests {
		got := Offsets(tt.hits, PageSize)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Offsets(%d) = %v, want %v", tt.hits, got, tt.want)
		}
	}
}

type countingLookup struct {
	calls int
	sets  Sets
	err   error
}

func (c *countingLookup) Lookup(ctx context.Context) (Sets, error) {
	c.calls++
	return c.sets, c.err
}

func TestResolve(t *testing.T) {
	lookup := &countingLookup{sets: Sets{
		Campuses:    []string{"Bryn Mawr", "Haverford", "Swarthmore"},
		Departments: []string{"ECON", "MATH"},
		Semesters:   []string{"Fall_2018", "Spring_2019"},
	}}

	q, err := SearchQuery{Semesters: []string{"Fall_2018"}}.Resolve(context.Background(), lookup)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !reflect.DeepEqual(q.Semesters, []string{"Fall_2018"}) {
		t.Errorf("Semesters overwritten: %v", q.Semesters)
	}
	if len(q.Campuses) != 3 || len(q.Departments) != 2 {
		t.Errorf("defaults not applied: %+v", q)
	}

	full := SearchQuery{Campuses: []string{"a"}, Departments: []string{"b"}, Semesters: []string{"c"}}
	if _, err := full.Resolve(context.Background(), lookup); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup called %d times, want 1", lookup.calls)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := (SearchQuery{}).Resolve(context.Background(), nil); err == nil {
		t.Error("Resolve() without lookup expected error")
	}

	boom := errors.New("boom")
	_, err := (SearchQuery{}).Resolve(context.Background(), &countingLookup{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Resolve() error = %v, want wrapped boom", err)
	}
}

func TestStaticLookup(t *testing.T) {
	sets := Sets{Campuses: []string{"Swarthmore"}}
	got, err := StaticLookup(sets).Lookup(context.Background())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if !reflect.DeepEqual(got, sets) {
		t.Errorf("Lookup() = %+v, want %+v", got, sets)
	}
}
