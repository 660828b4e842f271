// Package plan defines the Plan: the structured add/remove/adjust mutation
// descriptor compiled from a spoken or typed grocery command.
//
// A Plan is the unit of confirmation and execution. The deterministic parser
// in plan/parser and any external (model-backed) producer emit the same wire
// shape, so downstream code does not care where a Plan came from:
//
//	{ "add": [{"name","quantity"?,"note"?}], "remove": [{"name"}],
//	  "adjust": [{"name","delta"}], "raw": "..." }
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teranos/pantry/errors"
)

// MaxQuantity bounds a single entry's quantity and the magnitude of a delta.
const MaxQuantity = 9999

// AddEntry creates name, or increases its quantity when it already exists.
type AddEntry struct {
	Name     string  `json:"name"`
	Quantity *int    `json:"quantity,omitempty"`
	Note     *string `json:"note,omitempty"`
}

// EffectiveQuantity returns the requested quantity, defaulting to 1.
func (e AddEntry) EffectiveQuantity() int {
	if e.Quantity == nil {
		return 1
	}
	return *e.Quantity
}

// RemoveEntry deletes the list row whose name matches.
type RemoveEntry struct {
	Name string `json:"name"`
}

// AdjustEntry changes the quantity of the matching row by Delta.
type AdjustEntry struct {
	Name  string `json:"name"`
	Delta int    `json:"delta"`
}

// Plan is the compiled form of one utterance.
// Entry order in each sequence is the order items were mentioned.
type Plan struct {
	Add    []AddEntry    `json:"add"`
	Remove []RemoveEntry `json:"remove"`
	Adjust []AdjustEntry `json:"adjust"`
	Raw    string        `json:"raw"`
}

// Producer turns an utterance into a Plan.
// The deterministic parser implements it; model-backed producers must emit
// the same shape (see Decode).
type Producer interface {
	Compile(ctx context.Context, utterance string) (*Plan, error)
}

// New returns an empty plan for raw with non-nil sequences.
func New(raw string) *Plan {
	return &Plan{
		Add:    []AddEntry{},
		Remove: []RemoveEntry{},
		Adjust: []AdjustEntry{},
		Raw:    raw,
	}
}

// IsEmpty reports whether the plan carries no entries.
func (p *Plan) IsEmpty() bool {
	return p.Len() == 0
}

// Len returns the total number of entries.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Add) + len(p.Remove) + len(p.Adjust)
}

// Validate checks the invariants every producer must honor:
// non-empty names, quantity in [1, MaxQuantity] when given, and non-zero
// deltas no larger than MaxQuantity in magnitude.
func (p *Plan) Validate() error {
	if p == nil {
		return errors.NewInvalidRequestError("plan is nil")
	}
	for i, e := range p.Add {
		if strings.TrimSpace(e.Name) == "" {
			return errors.WithHint(
				errors.NewInvalidRequestError("add[%d]: empty name", i),
				"every add entry needs an item name")
		}
		if e.Quantity != nil && *e.Quantity < 1 {
			return errors.WithHintf(
				errors.NewInvalidRequestError("add[%d] %q: quantity %d < 1", i, e.Name, *e.Quantity),
				"omit quantity to add one %s", e.Name)
		}
		if e.Quantity != nil && *e.Quantity > MaxQuantity {
			return errors.WithHintf(
				errors.NewInvalidRequestError("add[%d] %q: quantity %d > %d", i, e.Name, *e.Quantity, MaxQuantity),
				"quantities are limited to %d per entry", MaxQuantity)
		}
	}
	for i, e := range p.Remove {
		if strings.TrimSpace(e.Name) == "" {
			return errors.WithHint(
				errors.NewInvalidRequestError("remove[%d]: empty name", i),
				"every remove entry needs an item name")
		}
	}
	for i, e := range p.Adjust {
		if strings.TrimSpace(e.Name) == "" {
			return errors.WithHint(
				errors.NewInvalidRequestError("adjust[%d]: empty name", i),
				"every adjust entry needs an item name")
		}
		if e.Delta == 0 {
			return errors.WithHint(
				errors.NewInvalidRequestError("adjust[%d] %q: zero delta", i, e.Name),
				"use a positive delta to increase and a negative one to decrease")
		}
		if e.Delta > MaxQuantity || e.Delta < -MaxQuantity {
			return errors.WithHintf(
				errors.NewInvalidRequestError("adjust[%d] %q: delta %d out of range", i, e.Name, e.Delta),
				"deltas are limited to ±%d", MaxQuantity)
		}
	}
	return nil
}

// Decode parses a wire-shape plan from any producer, fills missing
// sequences and validates it.
func Decode(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrInvalidRequest, err.Error()), "decode plan")
	}
	p.fill()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// UnmarshalJSON keeps decoded sequences non-nil so a round-trip is lossless.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type wire Plan
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Plan(w)
	p.fill()
	return nil
}

func (p *Plan) fill() {
	if p.Add == nil {
		p.Add = []AddEntry{}
	}
	if p.Remove == nil {
		p.Remove = []RemoveEntry{}
	}
	if p.Adjust == nil {
		p.Adjust = []AdjustEntry{}
	}
}

// Summary renders the plan on one line, e.g.
// "add 2 chickens, milk (when cheap); remove eggs; adjust apples +2".
func (p *Plan) Summary() string {
	if p.IsEmpty() {
		return "nothing actionable"
	}
	var parts []string
	if len(p.Add) > 0 {
		items := make([]string, len(p.Add))
		for i, e := range p.Add {
			s := e.Name
			if e.Quantity != nil && *e.Quantity != 1 {
				s = fmt.Sprintf("%d %s", *e.Quantity, e.Name)
			}
			if e.Note != nil {
				s += " (" + *e.Note + ")"
			}
			items[i] = s
		}
		parts = append(parts, "add "+strings.Join(items, ", "))
	}
	if len(p.Remove) > 0 {
		items := make([]string, len(p.Remove))
		for i, e := range p.Remove {
			items[i] = e.Name
		}
		parts = append(parts, "remove "+strings.Join(items, ", "))
	}
	if len(p.Adjust) > 0 {
		items := make([]string, len(p.Adjust))
		for i, e := range p.Adjust {
			items[i] = fmt.Sprintf("%s %+d", e.Name, e.Delta)
		}
		parts = append(parts, "adjust "+strings.Join(items, ", "))
	}
	return strings.Join(parts, "; ")
}
