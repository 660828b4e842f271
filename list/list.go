// Package list defines the grocery list state the plan executor mutates and
// the narrow capabilities it needs from whatever persists that state.
package list

import (
	"context"
	"strings"

	"github.com/teranos/pantry/errors"
)

// Item is one row of a grocery list.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Note     *string `json:"note,omitempty"`
	Order    int     `json:"order"`
}

// ErrNoMatch is returned by by-name operations when no row matches.
var ErrNoMatch = errors.Wrap(errors.ErrNotFound, "no matching list item")

// Operations is the list-mutation capability consumed by the executor.
// Names are matched with MatchKey semantics.
type Operations interface {
	// AdjustQuantityByName adds delta to the matching row's quantity.
	AdjustQuantityByName(ctx context.Context, name string, delta int) (Item, error)
	// RemoveByName deletes the matching row.
	RemoveByName(ctx context.Context, name string) error
	// AddOrIncreaseByName increases the matching row by quantity, overwriting
	// its note when note is non-nil, or inserts a new row.
	AddOrIncreaseByName(ctx context.Context, name string, quantity int, note *string) (Item, error)
}

// Reader provides the single consistent read an execution matches against.
type Reader interface {
	Snapshot(ctx context.Context) ([]Item, error)
}

// Store is a list backend with both capabilities.
type Store interface {
	Operations
	Reader
}

// MatchKey is the identity used to match names: lower-cased, trimmed and
// whitespace-collapsed. "Milk" and "milk " share a key.
func MatchKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
