package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan/parser"
)

// PlanCmd compiles an utterance without touching the list
var PlanCmd = &cobra.Command{
	Use:   "plan <utterance...>",
	Short: "Compile an utterance and print the plan",
	Long: `Compile a grocery command into a plan and print it.

Nothing is written; use "pantry say" to apply a plan.

Examples:
  pantry plan add 2 chickens and milk
  pantry plan "decrease 2 bananas" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

var planFormat string

func init() {
	PlanCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "Output format: text, json, yaml")
}

func runPlan(cmd *cobra.Command, args []string) error {
	utterance := strings.Join(args, " ")

	p, err := parser.NewCompiler(logger.Named("parser")).Compile(cmd.Context(), utterance)
	if err != nil {
		return errors.Wrap(err, "failed to compile utterance")
	}

	if planFormat != "text" {
		data, err := formatPlan(p, planFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if p.IsEmpty() {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing actionable in %q\n", utterance)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.Summary())
	return renderTable(planRows(p))
}
