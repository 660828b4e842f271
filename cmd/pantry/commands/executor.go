package commands

import (
	"context"

	"github.com/teranos/pantry/am"
	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
	"github.com/teranos/pantry/plan/executor"
)

// buildExecutor wires store to an executor configured from cfg.
// A non-empty policyOverride wins over executor.floor_policy.
func buildExecutor(store list.Store, cfg *am.Config, policyOverride string) (*executor.Executor, error) {
	raw := cfg.Executor.FloorPolicy
	if policyOverride != "" {
		raw = policyOverride
	}
	policy, err := executor.ParseFloorPolicy(raw)
	if err != nil {
		return nil, err
	}

	return executor.New(store,
		executor.WithFloorPolicy(policy),
		executor.WithParallelism(cfg.Executor.Parallelism),
		executor.WithLogger(logger.Named("executor")),
	), nil
}

// dryRunStore copies src into memory so a plan can be executed without persisting
func dryRunStore(ctx context.Context, src list.Reader) (*list.MemoryStore, error) {
	items, err := src.Snapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to snapshot list for dry run")
	}
	return list.NewMemoryStore(items...), nil
}
