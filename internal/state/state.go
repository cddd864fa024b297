// Package state loads and saves the persisted state document: the
// command used to launch the remote server, its working directory, and
// the last-synced snapshot (spec §3, §6).
package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jamestut/s2r/internal/snapshot"
)

// State is the on-disk document. The persistence format itself is an
// external concern (spec §1); this is the plain JSON shape the CLI reads
// and writes.
type State struct {
	Command   []string          `json:"command"`
	RemoteCWD string            `json:"remotecwd"`
	Data      snapshot.Snapshot `json:"data"`
}

// Load reads and parses a state file.
func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var st State
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return nil, fmt.Errorf("state: parsing %q: %w", path, err)
	}
	if st.Data == nil {
		st.Data = snapshot.Snapshot{}
	}
	return &st, nil
}

// Save writes the state document to path, truncating any previous
// contents.
func (s *State) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("state: writing %q: %w", path, err)
	}
	return nil
}

// Exists reports whether a state file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
