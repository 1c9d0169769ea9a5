package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/trico-scraper/internal/collate"
	"github.com/pfrederiksen/trico-scraper/internal/course"
)

const (
	ScrapedFile  = "out_scraped.json"
	CollatedFile = "out_collate.json"
)

// ErrNoCache is returned when a requested artifact has not been written yet.
var ErrNoCache = errors.New("no cached data")

// Storage handles persistence of harvest artifacts
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the location of an artifact file.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// SaveRecords writes the raw record list.
func (s *Storage) SaveRecords(records []*course.Record) error {
	if records == nil {
		records = []*course.Record{}
	}
	return s.writeJSON(ScrapedFile, records)
}

// LoadRecords reads the raw record list written by SaveRecords.
func (s *Storage) LoadRecords() ([]*course.Record, error) {
	var records []*course.Record
	if err := s.readJSON(ScrapedFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveCollation writes the three collated buckets.
func (s *Storage) SaveCollation(buckets collate.Buckets) error {
	for i := range buckets {
		if buckets[i] == nil {
			buckets[i] = map[string]*collate.Record{}
		}
	}
	return s.writeJSON(CollatedFile, buckets)
}

// LoadCollation reads the buckets written by SaveCollation.
func (s *Storage) LoadCollation() (collate.Buckets, error) {
	var buckets collate.Buckets
	if err := s.readJSON(CollatedFile, &buckets); err != nil {
		return collate.Buckets{}, err
	}
	return buckets, nil
}

// writeJSON replaces name atomically so a crashed run never leaves half a file.
func (s *Storage) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Storage) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s not found in %s", ErrNoCache, name, s.dataDir)
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}
