// Package cli implements the command-line interface for trico-scraper.
//
// The cli package provides the Cobra-based command tree: scrape harvests the course
// guide and writes both JSON artifacts, collate rebuilds the scheduler buckets from
// the cached raw records, ics exports the collated meetings as a calendar, and
// parse-time checks a single day/time string. Settings come from flags, then TRICO_*
// environment variables, which may be supplied through a .env file.
package cli
