package city

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PostedStore is the append-only log of cities that have already been
// posted. Records are never rewritten or compacted; reads build a set, so
// duplicate lines waste space but cannot break uniqueness filtering.
type PostedStore struct {
	path string
}

func NewPostedStore(path string) *PostedStore {
	return &PostedStore{path: path}
}

// Load reads every record from the log and returns the set of derived
// identifiers. Malformed lines are skipped; a missing log file yields an
// empty set.
func (s *PostedStore) Load() (map[string]struct{}, error) {
	posted := make(map[string]struct{})

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return posted, nil
		}
		return nil, fmt.Errorf("failed to open posted log: %w", err)
	}
	defer file.Close()

	// Read line by line without a length cap: an oversized line is just
	// another malformed record to skip, not a reason to fail the load.
	reader := bufio.NewReader(file)
	for {
		line, readErr := reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var record PostedRecord
			if err := json.Unmarshal(line, &record); err == nil {
				posted[record.Key()] = struct{}{}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read posted log: %w", readErr)
		}
	}

	return posted, nil
}

// Save stamps the record with the current UTC time and appends one line.
func (s *PostedStore) Save(record PostedRecord) error {
	record.PostedAt = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create posted log directory: %w", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal posted record: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open posted log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append posted record: %w", err)
	}

	return nil
}
