// Package cmd builds the s2r command-line tree: genstate, genemptystate,
// sync, and server, each a cobra leaf under a common --cwd/--statefile
// pair of persistent flags (spec §6 "CLI surface"). Grounded on the
// teacher's backend/torrent/cmd/backend.go registration shape
// (var commandDefinition = &cobra.Command{...}; init() wires it up),
// adapted from one subcommand registering into a shared rclone.Root to
// several leaves registering into our own Root.
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamestut/s2r/internal/rlog"
)

const defaultStateFileName = ".s2rstate.json"

var (
	flagCWD       string
	flagStateFile string
	flagVerbose   int
	flagQuiet     bool
)

// Root is the top-level command. Execute() is the single entry point
// main.go calls.
var Root = &cobra.Command{
	Use:   "s2r",
	Short: "Synchronize a local directory tree onto a remote one over a helper subprocess",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rlog.SetLevel(flagVerbose, flagQuiet)
		return validateStateFileName(flagStateFile)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := Root.PersistentFlags()
	pf.StringVar(&flagCWD, "cwd", ".", "local directory to operate on")
	pf.StringVar(&flagStateFile, "statefile", defaultStateFileName, "state file name (a bare filename, resolved inside --cwd)")
	pf.CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (repeatable)")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress all but error-level logging")
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return Root.Execute()
}

// validateStateFileName rejects anything that is not a bare filename
// (open question 4: the source leaves this to an unchecked `assert`;
// here it is a proper usage error caught before any file I/O happens).
func validateStateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("--statefile must not be empty, \".\", or \"..\", got %q", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("--statefile must be a bare filename without a path separator, got %q", name)
	}
	return nil
}

// statePath returns the state file's full path inside --cwd.
func statePath() string {
	return filepath.Join(flagCWD, flagStateFile)
}
