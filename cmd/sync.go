package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jamestut/s2r/internal/rclient"
	"github.com/jamestut/s2r/internal/rlog"
	"github.com/jamestut/s2r/internal/snapshot"
	"github.com/jamestut/s2r/internal/state"
	"github.com/jamestut/s2r/internal/syncer"
)

var flagDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan --cwd, diff against the last snapshot, and synchronize the remote tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func init() {
	syncCmd.Flags().BoolVar(&flagDryRun, "dryrun", false,
		"list planned deletes/updates and exit without touching the transport")
	Root.AddCommand(syncCmd)
}

// runSync owns process-spawning: it launches the state file's `command`
// argv via os/exec and wires its stdin/stdout to a fresh rclient.Session
// (spec.md §1 treats this as external, but the CLI has to do it
// somewhere; grounded on the original client.py's run_sync() calling
// subprocess.Popen and wrapping the resulting pipes in a _Client).
func runSync() error {
	if !state.Exists(statePath()) {
		return fmt.Errorf("state file not found at %s; generate one with the \"genstate\" command", statePath())
	}
	st, err := state.Load(statePath())
	if err != nil {
		return fmt.Errorf("loading state file: %w", err)
	}

	if !flagDryRun {
		if len(st.Command) == 0 {
			return fmt.Errorf("no remote command configured; put the server argv in the \"command\" entry of %s", statePath())
		}
		if st.RemoteCWD == "" {
			return fmt.Errorf("no remote target folder configured; put it in the \"remotecwd\" entry of %s", statePath())
		}
	}

	newState, err := snapshot.ScanConcurrent(flagCWD, flagStateFile)
	if err != nil {
		return fmt.Errorf("scanning %q: %w", flagCWD, err)
	}
	plan := snapshot.Diff(st.Data, newState)

	if flagDryRun {
		return syncer.RenderDryRun(os.Stdout, plan)
	}

	if plan.IsEmpty() {
		rlog.Infof(nil, "nothing to be done")
		return nil
	}

	proc := exec.Command(st.Command[0], st.Command[1:]...)
	stdin, err := proc.StdinPipe()
	if err != nil {
		return fmt.Errorf("wiring remote command stdin: %w", err)
	}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		return fmt.Errorf("wiring remote command stdout: %w", err)
	}
	proc.Stderr = os.Stderr

	if err := proc.Start(); err != nil {
		return fmt.Errorf("starting remote command %v: %w", st.Command, err)
	}
	defer func() {
		stdin.Close()
		proc.Wait()
	}()

	sess, err := rclient.NewSession(stdout, stdin, st.RemoteCWD)
	if err != nil {
		return fmt.Errorf("negotiating with remote command: %w", err)
	}

	runStats, err := syncer.Run(sess, plan, newState, flagCWD)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_ = sess.Exit() // best-effort: we are about to close stdin anyway

	st.Data = newState
	if err := st.Save(statePath()); err != nil {
		return fmt.Errorf("saving updated state file: %w", err)
	}
	rlog.Infof(nil, "sync successful: %s", runStats)
	return nil
}
