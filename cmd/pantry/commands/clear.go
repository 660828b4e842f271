package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pantry/errors"
)

// ClearCmd removes every item
var ClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item from the list",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var clearYes bool

func init() {
	ClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Clear without asking for confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	store, database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if !clearYes {
		n, err := store.Count(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to count items")
		}
		if n == 0 {
			pterm.Info.Println("The list is already empty")
			return nil
		}
		ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(
			pterm.Sprintf("Remove all %d items?", n))
		if err != nil {
			return errors.Wrap(err, "failed to read confirmation")
		}
		if !ok {
			return nil
		}
	}

	removed, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Removed %d items", removed)
	return nil
}
