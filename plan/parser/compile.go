// Package parser compiles freeform grocery commands into plans.
//
// Grammar (one intent per utterance):
//
//	[remove|delete|drop|take off] ITEMS
//	[increase|plus|decrease|subtract|minus] [N] ITEMS
//	add [N] more ITEMS
//	[add|put|insert|get|i need|i want|please add|can you add] [N [UNIT]] ITEM [(NOTE)] ...
//
// ITEMS are separated by ",", "and" or "plus". On the add path a quantity
// word also starts a new item, so "two chickens three steaks" is two items.
//
// Compilation is pure and never fails: noise yields an empty plan.
package parser

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan"
)

// Compile turns an utterance into a Plan. The raw utterance is kept on the
// plan for display and audit.
func Compile(utterance string) *plan.Plan {
	p := plan.New(utterance)

	normalized := Normalize(utterance)
	if normalized == "" {
		return p
	}

	c := Classify(normalized)
	switch c.Intent {
	case IntentRemove:
		for _, seg := range SplitSegments(c.Remainder) {
			if name, _ := ExtractName(dropLeadingQuantity(seg)); name != "" {
				p.Remove = append(p.Remove, plan.RemoveEntry{Name: name})
			}
		}

	case IntentAdjust:
		for i, seg := range SplitSegments(c.Remainder) {
			if i == 0 && c.HasQuantity {
				seg = dropLeadingUnit(seg)
			}
			if name, _ := ExtractName(seg); name != "" {
				p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: name, Delta: c.Delta})
			}
		}

	default:
		for _, seg := range SplitSegments(c.Remainder) {
			p.Add = append(p.Add, extractAddEntries(seg)...)
		}
	}

	return p
}

// dropLeadingQuantity strips a count and its unit from a remove target:
// "2 apples" and "a dozen eggs" name the apples and eggs rows.
func dropLeadingQuantity(segment string) string {
	fields := strings.Fields(segment)
	if len(fields) > 1 {
		first := strings.Trim(fields[0], edgePunctuation)
		if IsQuantityToken(first) || articles[first] {
			return dropLeadingUnit(strings.Join(fields[1:], " "))
		}
	}
	return segment
}

func dropLeadingUnit(segment string) string {
	fields := strings.Fields(segment)
	if len(fields) > 1 && IsUnit(fields[0]) {
		return strings.Join(fields[1:], " ")
	}
	return segment
}

// Compiler adapts Compile to plan.Producer.
type Compiler struct {
	logger *zap.SugaredLogger
}

// NewCompiler returns a Compiler. A nil logger disables logging.
func NewCompiler(l *zap.SugaredLogger) *Compiler {
	return &Compiler{logger: logger.OrNop(l)}
}

// Compile implements plan.Producer.
func (c *Compiler) Compile(ctx context.Context, utterance string) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := Compile(utterance)
	c.logger.Debugw("Compiled utterance",
		logger.FieldUtterance, utterance,
		logger.FieldIntent, Classify(Normalize(utterance)).Intent.String(),
		logger.FieldCount, p.Len(),
	)
	return p, nil
}

var _ plan.Producer = (*Compiler)(nil)
