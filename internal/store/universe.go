package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"canslim/internal/domain"
)

// Compile-time interface check.
var _ UniverseStore = (*FileUniverseStore)(nil)

// FileUniverseStore keeps universe membership as one plain-text file per
// snapshot date (universe/YYYY-MM-DD.txt, one symbol per line). Membership
// between snapshot dates is carried forward by the consumer.
type FileUniverseStore struct {
	DataDir string
}

// NewFileUniverseStore creates a universe store rooted at the given data
// directory.
func NewFileUniverseStore(dataDir string) *FileUniverseStore {
	return &FileUniverseStore{DataDir: dataDir}
}

func (s *FileUniverseStore) dir() string {
	return filepath.Join(s.DataDir, "universe")
}

// WriteUniverse writes the sorted, deduplicated member list for a date,
// replacing any existing snapshot for that date.
func (s *FileUniverseStore) WriteUniverse(_ context.Context, date time.Time, symbols []string) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating universe dir: %w", err)
	}

	deduped := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" && !seen[sym] {
			seen[sym] = true
			deduped = append(deduped, sym)
		}
	}
	sort.Strings(deduped)

	path := filepath.Join(s.dir(), domain.Day(date).Format("2006-01-02")+".txt")
	return os.WriteFile(path, []byte(strings.Join(deduped, "\n")+"\n"), 0o644)
}

// ReadUniverse loads every snapshot file into a date → members map.
func (s *FileUniverseStore) ReadUniverse(_ context.Context) (map[time.Time][]string, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return map[time.Time][]string{}, nil
		}
		return nil, err
	}

	out := make(map[time.Time][]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		date, err := domain.ParseDay(strings.TrimSuffix(name, ".txt"))
		if err != nil {
			// Not a snapshot file.
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir(), name))
		if err != nil {
			return nil, fmt.Errorf("reading universe file %s: %w", name, err)
		}

		var symbols []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				symbols = append(symbols, line)
			}
		}
		sort.Strings(symbols)
		out[date] = symbols
	}
	return out, nil
}
