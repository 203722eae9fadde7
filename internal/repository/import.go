package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mtlprog/opschief/internal/domain"
)

// LoadEvents decodes a JSON array of event records as exported from the
// remote record store. Field values are read leniently; a record without an
// id is rejected because nothing could reference it.
func LoadEvents(r io.Reader) ([]domain.EventRecord, error) {
	var records []domain.EventRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode event records: %w", err)
	}

	seen := make(map[string]int, len(records))
	for i, e := range records {
		if e.ID == "" {
			return nil, fmt.Errorf("event record %d: missing id", i)
		}
		if prev, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("event record %d: duplicate id %q (first at %d)", i, e.ID, prev)
		}
		seen[e.ID] = i
	}

	return records, nil
}

// LoadEventsFile reads event records from a JSON file.
func LoadEventsFile(path string) ([]domain.EventRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	records, err := LoadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
