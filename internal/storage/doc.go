// Package storage persists harvest artifacts as JSON files in a data directory.
//
// Two files hand data to the scheduler: out_scraped.json holds the flat list of raw
// course records and out_collate.json holds the three collated buckets. The raw list
// doubles as a cache, so collation and calendar export can run without scraping.
// The default location is ~/.local/share/trico-scraper/.
package storage
