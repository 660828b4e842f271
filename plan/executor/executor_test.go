package executor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/pantry/errors"
	pantrytest "github.com/teranos/pantry/internal/testing"
	"github.com/teranos/pantry/internal/util"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/list/storage"
	"github.com/teranos/pantry/plan"
	"github.com/teranos/pantry/plan/parser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quantities(t *testing.T, s list.Reader) map[string]int {
	t.Helper()
	items, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.Name] = it.Quantity
	}
	return out
}

func newPlan(build func(p *plan.Plan)) *plan.Plan {
	p := plan.New("")
	build(p)
	return p
}

func TestParseFloorPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FloorPolicy
		wantErr bool
	}{
		{"", ClampToOne, false},
		{"clamp_to_one", ClampToOne, false},
		{"Clamp-To-Zero", ClampToZero, false},
		{" delete_at_zero ", DeleteAtZero, false},
		{"floor", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFloorPolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidRequestError(err))
				assert.NotEmpty(t, errors.GetAllHints(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloorPolicy_Apply(t *testing.T) {
	tests := []struct {
		policy     FloorPolicy
		old, delta int
		want       int
		remove     bool
	}{
		{ClampToOne, 3, -2, 1, false},
		{ClampToOne, 2, -5, 1, false},
		{ClampToOne, 2, 3, 5, false},
		{ClampToZero, 2, -2, 0, false},
		{ClampToZero, 2, -9, 0, false},
		{DeleteAtZero, 2, -1, 1, false},
		{DeleteAtZero, 2, -2, 0, true},
		{DeleteAtZero, 2, -7, 0, true},
		{ClampToOne, 5, math.MaxInt, math.MaxInt, false},
		{ClampToZero, math.MaxInt - 1, 9999, math.MaxInt, false},
		{ClampToOne, 5, math.MinInt, 1, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d%+d", tt.policy, tt.old, tt.delta), func(t *testing.T) {
			got, remove := tt.policy.apply(tt.old, tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.remove, remove)
		})
	}
}

func TestExecute_FloorPolicies(t *testing.T) {
	ctx := context.Background()
	p := newPlan(func(p *plan.Plan) {
		p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "apples", Delta: -5})
	})

	t.Run("clamp to one", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 2})
		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, ClampToOne, res.Policy)
		assert.Equal(t, OutcomeApplied, res.Entries[0].Outcome)
		assert.Equal(t, 1, res.Entries[0].Quantity)
		assert.Equal(t, map[string]int{"apples": 1}, quantities(t, store))
	})

	t.Run("clamp to zero", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 2})
		res, err := New(store, WithFloorPolicy(ClampToZero)).Execute(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, 0, res.Entries[0].Quantity)
		assert.Equal(t, map[string]int{"apples": 0}, quantities(t, store))
	})

	t.Run("delete at zero", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 2})
		res, err := New(store, WithFloorPolicy(DeleteAtZero)).Execute(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, OutcomeApplied, res.Entries[0].Outcome)
		assert.True(t, res.Entries[0].Removed)
		assert.Empty(t, quantities(t, store))
		assert.Equal(t, 1, store.Writes(), "one write per entry")
	})

	t.Run("delete at zero keeps rows above zero", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 9})
		_, err := New(store, WithFloorPolicy(DeleteAtZero)).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"apples": 4}, quantities(t, store))
	})

	t.Run("policy swap applies to next execution", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 2})
		ex := New(store)
		ex.SetFloorPolicy(DeleteAtZero)
		assert.Equal(t, DeleteAtZero, ex.FloorPolicy())

		res, err := ex.Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, DeleteAtZero, res.Policy)
		assert.Empty(t, quantities(t, store))
	})
}

func TestExecute_SectionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("add sees row removed earlier in the plan", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 3, Note: util.Ptr("oat")})
		p := newPlan(func(p *plan.Plan) {
			p.Add = append(p.Add, plan.AddEntry{Name: "milk", Quantity: util.Ptr(2)})
			p.Remove = append(p.Remove, plan.RemoveEntry{Name: "Milk"})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)

		items, err := store.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
		assert.Nil(t, items[0].Note, "removed row's note does not survive")

		assert.Equal(t, KindRemove, res.Entries[0].Kind)
		assert.Equal(t, KindAdd, res.Entries[1].Kind)
		assert.True(t, res.Entries[1].Created)
	})

	t.Run("add increases row adjusted earlier in the plan", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "eggs", Quantity: 1})
		p := newPlan(func(p *plan.Plan) {
			p.Add = append(p.Add, plan.AddEntry{Name: "eggs"})
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "eggs", Delta: 2})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"eggs": 4}, quantities(t, store))
		assert.False(t, res.Entries[1].Created)
		assert.Equal(t, 4, res.Entries[1].Quantity)
	})

	t.Run("adjust does not see rows the plan adds", func(t *testing.T) {
		store := list.NewMemoryStore()
		p := newPlan(func(p *plan.Plan) {
			p.Add = append(p.Add, plan.AddEntry{Name: "limes"})
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "limes", Delta: 1})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, res.Entries[0].Outcome)
		assert.Equal(t, map[string]int{"limes": 1}, quantities(t, store))
	})

	t.Run("same item adjusted twice runs in mention order", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 1})
		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust,
				plan.AdjustEntry{Name: "milk", Delta: 1},
				plan.AdjustEntry{Name: "milk", Delta: -1},
			)
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Entries[0].Quantity)
		assert.Equal(t, 1, res.Entries[1].Quantity)
	})
}

func TestExecute_DuplicateAddsFold(t *testing.T) {
	ctx := context.Background()
	names := []string{"milk", "Milk", "eggs", "EGGS ", "bread", "chicken"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		seed := make([]list.Item, 0, 2)
		if rng.Intn(2) == 0 {
			seed = append(seed, list.Item{Name: "milk", Quantity: 1 + rng.Intn(3)})
		}
		store := list.NewMemoryStore(seed...)

		want := map[string]int{}
		for _, it := range seed {
			want[list.MatchKey(it.Name)] += it.Quantity
		}

		p := plan.New("")
		for i := 0; i < 1+rng.Intn(8); i++ {
			name := names[rng.Intn(len(names))]
			entry := plan.AddEntry{Name: name}
			if rng.Intn(2) == 0 {
				entry.Quantity = util.Ptr(1 + rng.Intn(4))
			}
			p.Add = append(p.Add, entry)
			want[list.MatchKey(name)] += entry.EffectiveQuantity()
		}

		res, err := New(store, WithParallelism(3)).Execute(ctx, p)
		require.NoError(t, err)
		require.True(t, res.OK())

		got := map[string]int{}
		for name, q := range quantities(t, store) {
			key := list.MatchKey(name)
			_, dup := got[key]
			require.False(t, dup, "round %d: duplicate row for %q", round, key)
			got[key] = q
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round %d: folded quantities mismatch (-want +got):\n%s", round, diff)
		}
	}
}

func TestExecute_SingleSnapshot(t *testing.T) {
	store := list.NewMemoryStore(
		list.Item{Name: "milk", Quantity: 1},
		list.Item{Name: "eggs", Quantity: 12},
	)
	p := newPlan(func(p *plan.Plan) {
		p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "eggs", Delta: -6})
		p.Remove = append(p.Remove, plan.RemoveEntry{Name: "milk"})
		p.Add = append(p.Add, plan.AddEntry{Name: "bread"}, plan.AddEntry{Name: "milk"})
	})

	res, err := New(store).Execute(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 1, store.Snapshots())
	assert.Equal(t, 4, store.Writes())
	assert.Equal(t, map[string]int{"eggs": 6, "bread": 1, "milk": 1}, quantities(t, store))
}

func TestExecute_NoMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("unmatched entries write nothing", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 1})
		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "kiwi", Delta: 2})
			p.Remove = append(p.Remove, plan.RemoveEntry{Name: "bananas"})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.False(t, res.Partial())
		assert.Equal(t, 2, res.NoMatches())
		assert.Equal(t, 0, store.Writes())
		assert.NoError(t, res.Err())
	})

	t.Run("row vanishing before the write is no match", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 1})
		store.FailWith(func(op, name string) error {
			if op == "remove" {
				return errors.Wrap(list.ErrNoMatch, "deleted elsewhere")
			}
			return nil
		})
		p := newPlan(func(p *plan.Plan) {
			p.Remove = append(p.Remove, plan.RemoveEntry{Name: "milk"})
			p.Add = append(p.Add, plan.AddEntry{Name: "milk"})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoMatch, res.Entries[0].Outcome)
		assert.Equal(t, OutcomeApplied, res.Entries[1].Outcome)
		assert.True(t, res.Entries[1].Created)
	})
}

func TestExecute_PartialFailure(t *testing.T) {
	store := list.NewMemoryStore(list.Item{Name: "eggs", Quantity: 2})
	store.FailWith(func(op, name string) error {
		if op == "add" && name == "bread" {
			return errors.WrapWriteFailed(errors.New("connection reset"), "add bread")
		}
		return nil
	})
	p := newPlan(func(p *plan.Plan) {
		p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "eggs", Delta: 1})
		p.Add = append(p.Add,
			plan.AddEntry{Name: "bread"},
			plan.AddEntry{Name: "butter"},
		)
	})

	res, err := New(store, WithLogger(zaptest.NewLogger(t).Sugar())).Execute(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, res.OK())
	assert.True(t, res.Partial())
	assert.Equal(t, 2, res.Applied())
	assert.Equal(t, 1, res.Failed())

	failed := res.Entries[1]
	assert.Equal(t, OutcomeFailed, failed.Outcome)
	assert.Equal(t, "bread", failed.Name)
	assert.Contains(t, failed.Error, "connection reset")

	combined := res.Err()
	require.Error(t, combined)
	assert.True(t, errors.Is(combined, errors.ErrWriteFailed))
	assert.Contains(t, combined.Error(), `add "bread"`)

	assert.Equal(t, map[string]int{"eggs": 3, "butter": 1}, quantities(t, store))
}

func TestExecute_Cancellation(t *testing.T) {
	t.Run("canceled before execution writes nothing", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 1})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := newPlan(func(p *plan.Plan) {
			p.Remove = append(p.Remove, plan.RemoveEntry{Name: "milk"})
		})
		_, err := New(store).Execute(ctx, p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 0, store.Writes())
	})

	t.Run("canceled mid-plan fails entries not yet started", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "milk", Quantity: 1})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store.FailWith(func(op, name string) error {
			if op == "adjust" {
				cancel()
			}
			return nil
		})

		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "milk", Delta: 1})
			p.Add = append(p.Add, plan.AddEntry{Name: "bread"}, plan.AddEntry{Name: "eggs"})
		})
		res, err := New(store, WithParallelism(1)).Execute(ctx, p)
		require.NoError(t, err)

		assert.Equal(t, OutcomeApplied, res.Entries[0].Outcome)
		for _, e := range res.Entries[1:] {
			assert.Equal(t, OutcomeFailed, e.Outcome, e.Name)
			assert.True(t, errors.Is(e.Err, context.Canceled))
		}
		assert.Equal(t, map[string]int{"milk": 2}, quantities(t, store))
	})
}

func TestExecute_Rejects(t *testing.T) {
	store := list.NewMemoryStore()
	ex := New(store)

	t.Run("nil plan", func(t *testing.T) {
		_, err := ex.Execute(context.Background(), nil)
		assert.True(t, errors.IsInvalidRequestError(err))
	})

	t.Run("invalid plan", func(t *testing.T) {
		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "milk", Delta: 0})
		})
		_, err := ex.Execute(context.Background(), p)
		assert.True(t, errors.IsInvalidRequestError(err))
		assert.Equal(t, 0, store.Snapshots())
	})

	t.Run("empty plan reads nothing", func(t *testing.T) {
		res, err := ex.Execute(context.Background(), plan.New("um"))
		require.NoError(t, err)
		assert.Empty(t, res.Entries)
		assert.True(t, res.OK())
		assert.Equal(t, 0, store.Snapshots())
	})
}

func TestExecute_ResultOrder(t *testing.T) {
	store := list.NewMemoryStore()
	p := plan.New("")
	for i := 0; i < 20; i++ {
		p.Add = append(p.Add, plan.AddEntry{Name: fmt.Sprintf("item %02d", i)})
	}
	p.Remove = append(p.Remove, plan.RemoveEntry{Name: "nothing"})

	res, err := New(store, WithParallelism(8)).Execute(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Entries, 21)

	assert.Equal(t, KindRemove, res.Entries[0].Kind)
	for i, e := range res.Entries[1:] {
		assert.Equal(t, KindAdd, e.Kind)
		assert.Equal(t, i, e.Index)
		assert.Equal(t, fmt.Sprintf("item %02d", i), e.Name)
		assert.Equal(t, OutcomeApplied, e.Outcome)
	}
	assert.Len(t, quantities(t, store), 20)
}

func TestExecute_SQLStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(pantrytest.CreateTestDB(t), zaptest.NewLogger(t).Sugar())
	for _, name := range []string{"milk", "apples"} {
		_, err := store.AddOrIncreaseByName(ctx, name, 2, nil)
		require.NoError(t, err)
	}

	p := newPlan(func(p *plan.Plan) {
		p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "Apples", Delta: -2})
		p.Remove = append(p.Remove, plan.RemoveEntry{Name: "milk"})
		p.Add = append(p.Add,
			plan.AddEntry{Name: "chickens", Quantity: util.Ptr(2)},
			plan.AddEntry{Name: "chickens"},
			plan.AddEntry{Name: "avocados", Note: util.Ptr("when cheap")},
		)
	})

	res, err := New(store, WithFloorPolicy(ClampToZero)).Execute(ctx, p)
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Err())

	assert.Equal(t, map[string]int{"apples": 0, "chickens": 3, "avocados": 1}, quantities(t, store))

	var summary []string
	for _, e := range res.Entries {
		summary = append(summary, fmt.Sprintf("%s:%s:%s", e.Kind, e.Name, e.Outcome))
	}
	assert.Equal(t,
		"adjust:Apples:applied remove:milk:applied add:chickens:applied add:chickens:applied add:avocados:applied",
		strings.Join(summary, " "))
}

func TestExecute_OversizedQuantities(t *testing.T) {
	ctx := context.Background()

	t.Run("compiled oversized quantities fall back to one", func(t *testing.T) {
		for _, utterance := range []string{
			"increase 9223372036854775807 apples",
			"add 9223372036854775807 apples",
		} {
			t.Run(utterance, func(t *testing.T) {
				store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 5})

				res, err := New(store).Execute(ctx, parser.Compile(utterance))
				require.NoError(t, err)
				require.Len(t, res.Entries, 1)
				assert.Equal(t, OutcomeApplied, res.Entries[0].Outcome)
				assert.Equal(t, 6, res.Entries[0].Quantity)
				assert.Equal(t, map[string]int{"apples": 6}, quantities(t, store))
			})
		}
	})

	t.Run("out of range plan is rejected before any read", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: 5})
		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "apples", Delta: math.MaxInt})
		})

		_, err := New(store).Execute(ctx, p)
		assert.True(t, errors.IsInvalidRequestError(err))
		assert.Equal(t, 0, store.Snapshots())
		assert.Equal(t, map[string]int{"apples": 5}, quantities(t, store))
	})

	t.Run("increase on a saturated row never lowers it", func(t *testing.T) {
		store := list.NewMemoryStore(list.Item{Name: "apples", Quantity: math.MaxInt})
		p := newPlan(func(p *plan.Plan) {
			p.Adjust = append(p.Adjust, plan.AdjustEntry{Name: "apples", Delta: plan.MaxQuantity})
		})

		res, err := New(store).Execute(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, res.Entries[0].Outcome)
		assert.Equal(t, math.MaxInt, res.Entries[0].Quantity)
	})
}
