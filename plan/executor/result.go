package executor

import (
	"github.com/teranos/pantry/errors"
)

// Kind names the plan section an entry came from.
type Kind string

const (
	KindAdjust Kind = "adjust"
	KindRemove Kind = "remove"
	KindAdd    Kind = "add"
)

// Outcome is what happened to one plan entry.
type Outcome string

const (
	// OutcomeApplied means the entry's write was committed.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoMatch means an Adjust or Remove found no row. It is not an error.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeFailed means the write failed or never started.
	OutcomeFailed Outcome = "failed"
)

// EntryResult reports one plan entry.
type EntryResult struct {
	Kind  Kind   `json:"kind"`
	Index int    `json:"index"`
	Name  string `json:"name"`
	// Outcome is applied, no_match or failed.
	Outcome Outcome `json:"outcome"`
	// Quantity is the row's quantity after the write. Zero when the row is gone.
	Quantity int `json:"quantity"`
	// Created is set when an Add inserted a new row instead of increasing one.
	Created bool   `json:"created,omitempty"`
	Removed bool   `json:"removed,omitempty"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of executing one plan. Entries are ordered Adjust,
// Remove, Add and by position within each section.
type Result struct {
	Policy  FloorPolicy   `json:"floor_policy"`
	Entries []EntryResult `json:"entries"`
}

func (r *Result) count(o Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Applied counts committed entries.
func (r *Result) Applied() int { return r.count(OutcomeApplied) }

// Failed counts entries whose write failed.
func (r *Result) Failed() int { return r.count(OutcomeFailed) }

// NoMatches counts Adjust/Remove entries that matched nothing.
func (r *Result) NoMatches() int { return r.count(OutcomeNoMatch) }

// OK reports whether no entry failed.
func (r *Result) OK() bool { return r.Failed() == 0 }

// Partial reports whether some entries failed while others did not.
func (r *Result) Partial() bool {
	failed := r.Failed()
	return failed > 0 && failed < len(r.Entries)
}

// Err combines every entry error, or returns nil.
func (r *Result) Err() error {
	var combined error
	for _, e := range r.Entries {
		if e.Err != nil {
			combined = errors.CombineErrors(combined, errors.Wrapf(e.Err, "%s %q", e.Kind, e.Name))
		}
	}
	return combined
}
