package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/cmd/pantry/commands"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "pantry - voice and text commands for a grocery list",
	Long: `pantry - turn freeform commands into grocery list changes.

An utterance such as "add two chickens and milk" or "decrease 2 apples" is
compiled into a plan of adds, removes and quantity adjustments, shown for
confirmation, then applied to the list. One verb governs each utterance.

Available commands:
  plan    - Compile an utterance and print the plan
  say     - Compile an utterance and apply it to the list
  ls      - Show the list
  clear   - Remove every item
  am      - Manage pantry configuration ("I am")
  server  - Start the HTTP API
  version - Show version information

Examples:
  pantry plan "add 2 avocados (ripe) and milk"
  pantry say remove eggs and butter
  pantry say --dry-run "add three cans of soup"
  pantry am show --format yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		// Config errors surface in the command itself; logging falls back to defaults
		if cfg, err := am.Load(); err == nil {
			jsonLogs = jsonLogs || cfg.Log.JSON
			logger.SetTheme(cfg.GetServerLogTheme())
		}

		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("db-path", "", "Database path (overrides config)")

	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.SayCmd)
	rootCmd.AddCommand(commands.LsCmd)
	rootCmd.AddCommand(commands.ClearCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
