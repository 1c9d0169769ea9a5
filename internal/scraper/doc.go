// Package scraper fetches pages from the Tri-College course guide search interface.
//
// It reads the total hit count and the detail-page links from results pages, fetches
// and extracts detail pages, and reads the default campus, department and semester
// sets from the search form. Transport failures (network errors and 5xx responses)
// are retried with exponential backoff; every other failure is returned at once.
package scraper
