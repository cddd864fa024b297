package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/snapshot"
	"github.com/jamestut/s2r/internal/state"
)

var genstateCmd = &cobra.Command{
	Use:   "genstate",
	Short: "Persist a snapshot of --cwd, treating it as already synced",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenState(false)
	},
}

var genEmptyStateCmd = &cobra.Command{
	Use:   "genemptystate",
	Short: "Persist an empty snapshot, treating --cwd as entirely new",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenState(true)
	},
}

func init() {
	Root.AddCommand(genstateCmd)
	Root.AddCommand(genEmptyStateCmd)
}

// runGenState implements both genstate and genemptystate: load the
// existing state document if one is present (preserving its `command`
// and `remotecwd` fields, which this CLI never sets — they are edited
// directly in the state file) and overwrite only `data`.
func runGenState(empty bool) error {
	st, err := loadOrNewState()
	if err != nil {
		return fmt.Errorf("loading existing state: %w", err)
	}

	if empty {
		st.Data = snapshot.Snapshot{}
	} else {
		data, err := snapshot.ScanConcurrent(flagCWD, flagStateFile)
		if err != nil {
			return fmt.Errorf("scanning %q: %w", flagCWD, err)
		}
		st.Data = data
	}

	if err := st.Save(statePath()); err != nil {
		return fmt.Errorf("saving state file: %w", err)
	}
	rlog.Infof(nil, "wrote state for %d path(s) to %s", len(st.Data), statePath())
	return nil
}

func loadOrNewState() (*state.State, error) {
	if state.Exists(statePath()) {
		return state.Load(statePath())
	}
	return &state.State{Command: []string{}, Data: snapshot.Snapshot{}}, nil
}
