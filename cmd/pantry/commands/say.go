package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan/parser"
)

// SayCmd compiles an utterance, confirms the plan and applies it
var SayCmd = &cobra.Command{
	Use:   "say <utterance...>",
	Short: "Compile an utterance and apply it to the list",
	Long: `Compile a grocery command, show the plan, and apply it once confirmed.

Adjustments run first, then removals, then additions. Items that are not
on the list are reported as "no_match" and never fail the command; any
failed write makes the command exit non-zero.

Examples:
  pantry say add two chickens and milk
  pantry say --yes "add 2 more apples"
  pantry say --dry-run --floor-policy delete_at_zero decrease 5 bananas`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

var (
	sayYes         bool
	sayDryRun      bool
	sayFloorPolicy string
)

func init() {
	SayCmd.Flags().BoolVarP(&sayYes, "yes", "y", false, "Apply without asking for confirmation")
	SayCmd.Flags().BoolVar(&sayDryRun, "dry-run", false, "Execute against an in-memory copy of the list")
	SayCmd.Flags().StringVar(&sayFloorPolicy, "floor-policy", "", "Override executor.floor_policy for this run")
}

func runSay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	utterance := strings.Join(args, " ")

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	p, err := parser.NewCompiler(logger.Named("parser")).Compile(ctx, utterance)
	if err != nil {
		return errors.Wrap(err, "failed to compile utterance")
	}
	if p.IsEmpty() {
		pterm.Info.Printfln("Nothing actionable in %q", utterance)
		return nil
	}

	pterm.DefaultSection.Println(p.Summary())
	if err := renderTable(planRows(p)); err != nil {
		return err
	}

	if !sayYes && !sayDryRun {
		ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show("Apply this plan?")
		if err != nil {
			return errors.Wrap(err, "failed to read confirmation")
		}
		if !ok {
			pterm.Info.Println("Plan discarded, list unchanged")
			return nil
		}
	}

	store, database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	var target list.Store = store
	var preview *list.MemoryStore
	if sayDryRun {
		preview, err = dryRunStore(ctx, store)
		if err != nil {
			return err
		}
		target = preview
		pterm.Info.Println("Dry run: changes are not saved")
	}

	exec, err := buildExecutor(target, cfg, sayFloorPolicy)
	if err != nil {
		return err
	}

	res, err := exec.Execute(ctx, p)
	if err != nil {
		return errors.Wrap(err, "failed to execute plan")
	}
	if err := renderResult(res); err != nil {
		return err
	}

	if preview != nil {
		items, err := preview.Snapshot(ctx)
		if err != nil {
			return err
		}
		if err := renderTable(itemRows(items)); err != nil {
			return err
		}
	}

	if !res.OK() {
		return errors.Wrapf(res.Err(), "%d of %d entries failed", res.Failed(), len(res.Entries))
	}
	return nil
}
