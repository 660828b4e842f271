package executor

import (
	"math"
	"strings"

	"github.com/teranos/pantry/errors"
)

// FloorPolicy decides what an Adjust does when the new quantity would drop
// below one.
type FloorPolicy string

const (
	// ClampToOne keeps every row at quantity one or more. Default.
	ClampToOne FloorPolicy = "clamp_to_one"
	// ClampToZero allows a row to sit at quantity zero.
	ClampToZero FloorPolicy = "clamp_to_zero"
	// DeleteAtZero removes the row once its quantity reaches zero.
	DeleteAtZero FloorPolicy = "delete_at_zero"
)

// DefaultFloorPolicy is used when none is configured.
const DefaultFloorPolicy = ClampToOne

// FloorPolicies lists every accepted policy.
var FloorPolicies = []FloorPolicy{ClampToOne, ClampToZero, DeleteAtZero}

// ParseFloorPolicy accepts the policy names case-insensitively, with dashes
// or underscores. An empty string yields the default.
func ParseFloorPolicy(s string) (FloorPolicy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if norm == "" {
		return DefaultFloorPolicy, nil
	}
	for _, p := range FloorPolicies {
		if string(p) == norm {
			return p, nil
		}
	}
	return "", errors.WithHint(
		errors.NewInvalidRequestError("unknown floor policy %q", s),
		"valid policies: clamp_to_one, clamp_to_zero, delete_at_zero",
	)
}

// apply returns the quantity a row should hold after adding delta to old,
// and whether the row should be deleted instead. The sum saturates rather
// than wrapping.
func (p FloorPolicy) apply(old, delta int) (next int, remove bool) {
	next = saturatingAdd(old, delta)
	switch p {
	case ClampToZero:
		if next < 0 {
			next = 0
		}
	case DeleteAtZero:
		if next <= 0 {
			return 0, true
		}
	default:
		if next < 1 {
			next = 1
		}
	}
	return next, false
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
