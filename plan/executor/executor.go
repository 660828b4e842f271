// Package executor applies a compiled plan to a grocery list.
//
// Execution reads the list once, then runs the plan's sections in a fixed
// order: Adjust, Remove, Add. Entries in a section that name different items
// run concurrently; entries naming the same item run in mention order, so
// two Adds of "milk" fold into one row by match-and-increase. A failed write
// is reported on its entry and never stops the rest of the plan.
package executor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan"
)

// DefaultParallelism bounds concurrent writes within one section.
const DefaultParallelism = 4

// Executor applies plans to a list.Store.
type Executor struct {
	store       list.Store
	logger      *zap.SugaredLogger
	parallelism int

	mu     sync.RWMutex
	policy FloorPolicy
}

// Option configures an Executor.
type Option func(*Executor)

// WithFloorPolicy sets the Adjust floor policy.
func WithFloorPolicy(p FloorPolicy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// WithParallelism bounds concurrent writes per section. n < 1 means one at a time.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.parallelism = n
	}
}

// WithLogger sets the executor's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Executor) {
		e.logger = logger.OrNop(l)
	}
}

// New creates an executor over store.
func New(store list.Store, opts ...Option) *Executor {
	e := &Executor{
		store:       store,
		logger:      zap.NewNop().Sugar(),
		parallelism: DefaultParallelism,
		policy:      DefaultFloorPolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FloorPolicy returns the policy the next execution will use.
func (e *Executor) FloorPolicy() FloorPolicy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// SetFloorPolicy swaps the policy for subsequent executions. An execution
// already running keeps the policy it started with.
func (e *Executor) SetFloorPolicy(p FloorPolicy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.policy = p
}

// view is the execution's copy of the list, keyed by list.MatchKey. It starts
// as the single snapshot and only changes after a committed write.
type view struct {
	mu    sync.Mutex
	items map[string]list.Item
}

func newView(items []list.Item) *view {
	v := &view{items: make(map[string]list.Item, len(items))}
	for _, it := range items {
		v.items[list.MatchKey(it.Name)] = it
	}
	return v
}

func (v *view) get(name string) (list.Item, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	it, ok := v.items[list.MatchKey(name)]
	return it, ok
}

func (v *view) put(it list.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items[list.MatchKey(it.Name)] = it
}

func (v *view) drop(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.items, list.MatchKey(name))
}

// task is one plan entry bound to its result slot.
type task struct {
	key string
	run func(ctx context.Context) EntryResult
	out *EntryResult
}

// Execute applies p. The returned error is non-nil only when nothing was
// attempted: an invalid plan or a failed snapshot. Per-entry failures are in
// the Result.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) (*Result, error) {
	if p == nil {
		return nil, errors.NewInvalidRequestError("plan is nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	policy := e.FloorPolicy()
	res := &Result{Policy: policy, Entries: make([]EntryResult, p.Len())}
	if p.IsEmpty() {
		return res, nil
	}

	start := time.Now()
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read list snapshot")
	}
	v := newView(snapshot)

	adjust := make([]task, len(p.Adjust))
	for i, entry := range p.Adjust {
		adjust[i] = task{
			key: list.MatchKey(entry.Name),
			out: &res.Entries[i],
			run: func(ctx context.Context) EntryResult { return e.adjust(ctx, v, policy, i, entry) },
		}
		*adjust[i].out = EntryResult{Kind: KindAdjust, Index: i, Name: entry.Name}
	}

	offset := len(p.Adjust)
	remove := make([]task, len(p.Remove))
	for i, entry := range p.Remove {
		remove[i] = task{
			key: list.MatchKey(entry.Name),
			out: &res.Entries[offset+i],
			run: func(ctx context.Context) EntryResult { return e.remove(ctx, v, i, entry) },
		}
		*remove[i].out = EntryResult{Kind: KindRemove, Index: i, Name: entry.Name}
	}

	offset += len(p.Remove)
	add := make([]task, len(p.Add))
	for i, entry := range p.Add {
		add[i] = task{
			key: list.MatchKey(entry.Name),
			out: &res.Entries[offset+i],
			run: func(ctx context.Context) EntryResult { return e.add(ctx, v, i, entry) },
		}
		*add[i].out = EntryResult{Kind: KindAdd, Index: i, Name: entry.Name}
	}

	for _, section := range [][]task{adjust, remove, add} {
		e.runSection(ctx, section)
	}

	e.logger.Infow("Plan executed",
		logger.FieldPolicy, string(policy),
		logger.FieldCount, len(res.Entries),
		logger.FieldApplied, res.Applied(),
		logger.FieldNoMatch, res.NoMatches(),
		logger.FieldFailed, res.Failed(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// runSection groups tasks by match key and runs the groups concurrently.
// It returns once every task in the section has a result.
func (e *Executor) runSection(ctx context.Context, tasks []task) {
	if len(tasks) == 0 {
		return
	}

	var order []string
	groups := make(map[string][]task)
	for _, t := range tasks {
		if _, ok := groups[t.key]; !ok {
			order = append(order, t.key)
		}
		groups[t.key] = append(groups[t.key], t)
	}

	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for _, key := range order {
		group := groups[key]
		g.Go(func() error {
			for _, t := range group {
				if err := ctx.Err(); err != nil {
					fail(t.out, err)
					continue
				}
				*t.out = t.run(ctx)
			}
			return nil
		})
	}
	// Tasks never return errors; failures live on the results.
	_ = g.Wait()
}

func fail(r *EntryResult, err error) {
	r.Outcome = OutcomeFailed
	r.Err = err
	r.Error = err.Error()
}

// finish classifies a store error into an outcome.
func (e *Executor) finish(r EntryResult, err error) EntryResult {
	switch {
	case err == nil:
		r.Outcome = OutcomeApplied
	case errors.Is(err, list.ErrNoMatch):
		r.Outcome = OutcomeNoMatch
	default:
		fail(&r, err)
		e.logger.Warnw("Plan entry failed",
			logger.FieldKind, string(r.Kind),
			logger.FieldEntry, r.Index,
			logger.FieldName, r.Name,
			logger.FieldError, err,
		)
		return r
	}
	e.logger.Debugw("Plan entry done",
		logger.FieldKind, string(r.Kind),
		logger.FieldEntry, r.Index,
		logger.FieldName, r.Name,
		logger.FieldOutcome, string(r.Outcome),
		logger.FieldQuantity, r.Quantity,
	)
	return r
}

func (e *Executor) adjust(ctx context.Context, v *view, policy FloorPolicy, i int, entry plan.AdjustEntry) EntryResult {
	r := EntryResult{Kind: KindAdjust, Index: i, Name: entry.Name}

	current, ok := v.get(entry.Name)
	if !ok {
		r.Outcome = OutcomeNoMatch
		return r
	}

	next, del := policy.apply(current.Quantity, entry.Delta)
	if del {
		err := e.store.RemoveByName(ctx, entry.Name)
		if err == nil || errors.Is(err, list.ErrNoMatch) {
			v.drop(entry.Name)
		}
		if err == nil {
			r.Removed = true
		}
		return e.finish(r, err)
	}

	updated, err := e.store.AdjustQuantityByName(ctx, entry.Name, next-current.Quantity)
	switch {
	case err == nil:
		v.put(updated)
		r.Quantity = updated.Quantity
	case errors.Is(err, list.ErrNoMatch):
		v.drop(entry.Name)
	}
	return e.finish(r, err)
}

func (e *Executor) remove(ctx context.Context, v *view, i int, entry plan.RemoveEntry) EntryResult {
	r := EntryResult{Kind: KindRemove, Index: i, Name: entry.Name}

	if _, ok := v.get(entry.Name); !ok {
		r.Outcome = OutcomeNoMatch
		return r
	}

	err := e.store.RemoveByName(ctx, entry.Name)
	if err == nil || errors.Is(err, list.ErrNoMatch) {
		v.drop(entry.Name)
	}
	if err == nil {
		r.Removed = true
	}
	return e.finish(r, err)
}

func (e *Executor) add(ctx context.Context, v *view, i int, entry plan.AddEntry) EntryResult {
	r := EntryResult{Kind: KindAdd, Index: i, Name: entry.Name}

	_, existed := v.get(entry.Name)
	updated, err := e.store.AddOrIncreaseByName(ctx, entry.Name, entry.EffectiveQuantity(), entry.Note)
	if err == nil {
		v.put(updated)
		r.Quantity = updated.Quantity
		r.Created = !existed
	}
	return e.finish(r, err)
}
