package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pantry/display"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/plan"
	"github.com/teranos/pantry/plan/executor"
)

// formatPlan encodes p for machine consumption. Text output goes through renderPlan.
func formatPlan(p *plan.Plan, format string) ([]byte, error) {
	switch format {
	case "json":
		return display.MarshalJSON(p)
	case "yaml":
		data, err := yaml.Marshal(p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal plan to YAML")
		}
		return data, nil
	default:
		return nil, errors.NewInvalidRequestError("unsupported format: %s (supported: text, json, yaml)", format)
	}
}

// planRows lists entries in the order the executor applies them
func planRows(p *plan.Plan) pterm.TableData {
	rows := pterm.TableData{{"Action", "Item", "Change", "Note"}}
	for _, e := range p.Adjust {
		rows = append(rows, []string{string(executor.KindAdjust), e.Name, fmt.Sprintf("%+d", e.Delta), ""})
	}
	for _, e := range p.Remove {
		rows = append(rows, []string{string(executor.KindRemove), e.Name, "", ""})
	}
	for _, e := range p.Add {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		rows = append(rows, []string{string(executor.KindAdd), e.Name, fmt.Sprintf("+%d", e.EffectiveQuantity()), note})
	}
	return rows
}

func resultRows(res *executor.Result) pterm.TableData {
	rows := pterm.TableData{{"Action", "Item", "Outcome", "Quantity", "Detail"}}
	for _, e := range res.Entries {
		qty := ""
		detail := e.Error
		switch {
		case e.Outcome != executor.OutcomeApplied:
		case e.Removed:
			detail = "removed"
		case e.Created:
			qty = strconv.Itoa(e.Quantity)
			detail = "new"
		default:
			qty = strconv.Itoa(e.Quantity)
		}
		rows = append(rows, []string{string(e.Kind), e.Name, string(e.Outcome), qty, detail})
	}
	return rows
}

func itemRows(items []list.Item) pterm.TableData {
	rows := pterm.TableData{{"#", "Item", "Qty", "Note"}}
	for i, it := range items {
		note := ""
		if it.Note != nil {
			note = *it.Note
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), it.Name, strconv.Itoa(it.Quantity), note})
	}
	return rows
}

func renderTable(rows pterm.TableData) error {
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// renderResult prints the per-entry table and a one-line tally
func renderResult(res *executor.Result) error {
	if len(res.Entries) > 0 {
		if err := renderTable(resultRows(res)); err != nil {
			return err
		}
	}
	tally := fmt.Sprintf("%d applied, %d not on list, %d failed (floor policy %s)",
		res.Applied(), res.NoMatches(), res.Failed(), res.Policy)
	switch {
	case res.Failed() == 0:
		pterm.Success.Println(tally)
	case res.Partial():
		pterm.Warning.Println(tally)
	default:
		pterm.Error.Println(tally)
	}
	return nil
}
