package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/trico-scraper/internal/calendar"
	"github.com/pfrederiksen/trico-scraper/internal/collate"
	"github.com/pfrederiksen/trico-scraper/internal/course"
	"github.com/pfrederiksen/trico-scraper/internal/meeting"
)

func main() {
	// A two-meeting section, as the extractor would produce it
	meetings, err := meeting.Parse("MWF 11:30am-12:20pm, TH 1:00pm-2:20pm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing meeting times: %v\n", err)
		os.Exit(1)
	}
	rec := &course.Record{
		Attributes: course.Attributes{
			RegistrationID: "ECON 021 01",
			Department:     "Economics",
			CourseTitle:    "Statistics for Economists",
			RoomLocation:   "Trotter 203",
		},
		AdditionalInfo: course.AdditionalInfo{CRN: "10021", Comment: "Lab on Thursdays"},
		Subject:        "ECON",
		Number:         "021",
		Section:        "01",
		Meetings:       meetings,
	}

	c, err := collate.Collate([]*course.Record{rec})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error collating: %v\n", err)
		os.Exit(1)
	}

	term := calendar.Term{
		Start:    time.Date(2018, 9, 3, 0, 0, 0, 0, time.Local),
		End:      time.Date(2018, 12, 14, 0, 0, 0, 0, time.Local),
		Location: time.Local,
	}
	icsContent, err := calendar.GenerateICS(c.Buckets, term, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating calendar: %v\n", err)
		os.Exit(1)
	}

	// Write to file (owner read/write only)
	filename := "test-trico-course.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Import it into a calendar app and check that:")
	fmt.Println("1. ECON 021 repeats Monday, Wednesday and Friday at 11:30")
	fmt.Println("2. The Thursday lab repeats at 13:00")
	fmt.Println("3. Both series stop after December 14")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
