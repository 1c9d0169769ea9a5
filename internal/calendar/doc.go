// Package calendar exports collated course meetings as an iCalendar feed.
//
// Every timed slot becomes one weekly recurring event that starts on the first
// matching weekday on or after the term start and repeats until the term end.
// Untimed sections have no slot and are skipped.
package calendar
