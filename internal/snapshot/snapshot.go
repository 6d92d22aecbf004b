// Package snapshot persists the bounded tail of previously seen
// event-log entries and computes which freshly fetched entries are new.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fenderle/arris-scraper/internal/modem"
)

// DefaultSize is the number of events kept in the snapshot file.
const DefaultSize = 20

// matchWindow is the number of consecutive entries that must match
// element-for-element before fetched and persisted logs are considered
// aligned. A multi-entry window keeps a coincidental single-entry match
// from dropping genuinely new entries.
const matchWindow = 5

// Store reads and writes the snapshot file: a JSON array of events,
// oldest first, capped at size entries.
type Store struct {
	path string
	size int
}

func NewStore(path string, size int) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{path: path, size: size}
}

// Load returns the persisted events. A missing, empty or malformed
// file is "no prior snapshot", never an error.
func (s *Store) Load() []modem.Event {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var events []modem.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil
	}
	return events
}

// Save overwrites the snapshot wholesale with the most recent entries
// of events, via a temp file and rename so a crash mid-write cannot
// truncate the previous snapshot.
func (s *Store) Save(events []modem.Event) error {
	tail := events
	if len(tail) > s.size {
		tail = tail[len(tail)-s.size:]
	}

	data, err := json.Marshal(tail)
	if err != nil {
		return fmt.Errorf("snapshot: encoding %s: %w", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("snapshot: replacing %s: %w", s.path, err)
	}
	return nil
}

// FindNew returns the entries of fetched that appeared after the last
// poll, by sliding a window over fetched and looking for an exact
// element-for-element match against the snapshot's tail. With no prior
// snapshot, or a fetched log too short to establish overlap, or no
// match anywhere (modem restarted, log rolled past the snapshot), the
// whole fetched log is new.
func FindNew(fetched, snap []modem.Event) []modem.Event {
	window := len(snap)
	if window > matchWindow {
		window = matchWindow
	}
	if window == 0 || len(fetched) < window {
		return fetched
	}

	tail := snap[len(snap)-window:]
	for i := 0; i+window <= len(fetched); i++ {
		if windowEqual(fetched[i:i+window], tail) {
			return fetched[i+window:]
		}
	}
	return fetched
}

func windowEqual(a, b []modem.Event) bool {
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
