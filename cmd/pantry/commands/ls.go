package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pantry/display"
	"github.com/teranos/pantry/errors"
)

// LsCmd prints the list in insertion order
var LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show the grocery list",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func init() {
	LsCmd.Flags().BoolP("json", "j", false, "Output items as JSON")
}

func runLs(cmd *cobra.Command, args []string) error {
	store, database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	items, err := store.Snapshot(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to read list")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.WriteJSON(cmd.OutOrStdout(), items)
	}

	if len(items) == 0 {
		pterm.Info.Println("The list is empty")
		return nil
	}
	return renderTable(itemRows(items))
}
