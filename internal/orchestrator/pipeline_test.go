package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueSchema(name string) schema.Schema {
	return schema.Schema{
		Name: name,
		Fields: []schema.Field{
			{Name: "value", Type: schema.TypeNumber, Required: true, Nullable: true},
		},
	}
}

// recorder collects the views each stage observed.
type recorder struct {
	order []string
	views map[string]*Snapshot
}

func newRecorder() *recorder {
	return &recorder{views: make(map[string]*Snapshot)}
}

func (r *recorder) stage(id string, deps []string, candidate any) StageDefinition {
	return StageDefinition{
		ID:        id,
		DependsOn: deps,
		Schema:    valueSchema(id),
		Invoke: func(_ context.Context, view *Snapshot, _ tool.Invoker) (Result, error) {
			r.order = append(r.order, id)
			r.views[id] = view
			return Result{Candidate: candidate}, nil
		},
	}
}

func fixedEngine(t *testing.T, stages []StageDefinition, tools tool.Invoker, opts ...Option) *Engine {
	t.Helper()
	if tools == nil {
		tools = noTools()
	}
	opts = append([]Option{
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithRunIDs(func() string { return "run-1" }),
	}, opts...)
	e, err := NewEngine(stages, tools, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_ViolatedStageDoesNotStopLaterStages(t *testing.T) {
	rec := newRecorder()
	stages := []StageDefinition{
		rec.stage("X", nil, schema.Object{"value": 1.0}),
		rec.stage("Y", []string{"X"}, schema.Object{"value": "not a number"}),
		rec.stage("Z", []string{"X", "Y"}, schema.Object{"value": 3.0}),
	}

	snap, err := fixedEngine(t, stages, nil).Execute(context.Background(), Input{Query: "BTC"})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y", "Z"}, rec.order)

	zView := rec.views["Z"]
	y, ok := zView.Entry("Y")
	require.True(t, ok, "Z must see Y's entry")
	assert.Equal(t, StatusViolated, y.Status)
	require.NotNil(t, y.Violation)
	assert.Nil(t, zView.Field("Y", "value"))
	assert.Equal(t, 1.0, zView.Field("X", "value"))

	z, _ := snap.Entry("Z")
	assert.Equal(t, StatusAccepted, z.Status)
	assert.Equal(t, []string{"X", "Y", "Z"}, snap.IDs())
}

func TestEngine_ViewIsRestrictedToDependencies(t *testing.T) {
	rec := newRecorder()
	stages := []StageDefinition{
		rec.stage("a", nil, schema.Object{"value": 1.0}),
		rec.stage("b", nil, schema.Object{"value": 2.0}),
		rec.stage("c", []string{"b"}, schema.Object{"value": 3.0}),
	}

	_, err := fixedEngine(t, stages, nil).Execute(context.Background(), Input{})
	require.NoError(t, err)

	assert.Empty(t, rec.views["a"].IDs())
	assert.Empty(t, rec.views["b"].IDs(), "b declared no dependencies")
	assert.Equal(t, []string{"b"}, rec.views["c"].IDs())
}

func TestEngine_FailureIsIsolated(t *testing.T) {
	rec := newRecorder()
	boom := StageDefinition{
		ID:     "boom",
		Schema: valueSchema("boom"),
		Invoke: func(context.Context, *Snapshot, tool.Invoker) (Result, error) {
			panic("analyzer exploded")
		},
	}
	stages := []StageDefinition{
		rec.stage("a", nil, schema.Object{"value": 1.0}),
		boom,
		rec.stage("c", []string{"boom"}, schema.Object{"value": 3.0}),
	}

	snap, err := fixedEngine(t, stages, nil).Execute(context.Background(), Input{})
	require.NoError(t, err)

	e, _ := snap.Entry("boom")
	assert.Equal(t, StatusFailed, e.Status)
	assert.Contains(t, e.Reason, "analyzer exploded")

	c, _ := snap.Entry("c")
	assert.Equal(t, StatusAccepted, c.Status)
	seen, _ := rec.views["c"].Entry("boom")
	assert.Equal(t, StatusFailed, seen.Status)
}

func TestEngine_CancellationAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran []string
	mk := func(id string, fn func()) StageDefinition {
		return StageDefinition{
			ID:     id,
			Schema: valueSchema(id),
			Invoke: func(context.Context, *Snapshot, tool.Invoker) (Result, error) {
				ran = append(ran, id)
				if fn != nil {
					fn()
				}
				return Result{Candidate: schema.Object{"value": 1.0}}, nil
			},
		}
	}

	stages := []StageDefinition{mk("a", nil), mk("b", cancel), mk("c", nil)}
	snap, err := fixedEngine(t, stages, nil).Execute(ctx, Input{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, snap, "a cancelled run produces no context for aggregation")
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestEngine_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newRecorder()
	_, err := fixedEngine(t, []StageDefinition{rec.stage("a", nil, schema.Object{"value": 1.0})}, nil).Execute(ctx, Input{})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, rec.order)
}

func TestEngine_Timeout(t *testing.T) {
	slow := StageDefinition{
		ID:     "slow",
		Schema: valueSchema("slow"),
		Invoke: func(ctx context.Context, _ *Snapshot, _ tool.Invoker) (Result, error) {
			<-ctx.Done()
			return Result{Candidate: schema.Object{"value": nil}}, nil
		},
	}

	_, err := fixedEngine(t, []StageDefinition{slow}, nil, WithTimeout(20*time.Millisecond)).Execute(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_RunAggregates(t *testing.T) {
	rec := newRecorder()
	stages := []StageDefinition{
		rec.stage("a", nil, schema.Object{"value": 1.0}),
		rec.stage("b", []string{"a"}, schema.Object{"value": 2.0}),
	}
	e := fixedEngine(t, stages, nil, WithAnalyst("desk-a"))

	type summary struct {
		RunID   string
		Started time.Time
		Analyst string
		Sum     float64
	}
	got, err := Run(context.Background(), e, Input{Query: "q"}, func(s *Snapshot) summary {
		out := summary{RunID: s.RunID, Started: s.StartedAt, Analyst: s.Analyst}
		for _, id := range s.IDs() {
			v, _ := schema.AsFloat(s.Field(id, "value"))
			out.Sum += v
		}
		return out
	})
	require.NoError(t, err)
	assert.Equal(t, summary{
		RunID:   "run-1",
		Started: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Analyst: "desk-a",
		Sum:     3.0,
	}, got)
}

func TestEngine_RunSkipsAggregatorOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := newRecorder()
	e := fixedEngine(t, []StageDefinition{rec.stage("a", nil, schema.Object{"value": 1.0})}, nil)

	called := false
	_, err := Run(ctx, e, Input{}, func(*Snapshot) int {
		called = true
		return 1
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.False(t, called)
}

func TestEngine_CallCacheIsPerRun(t *testing.T) {
	var calls atomic.Int32
	tools := tool.InvokerFunc(func(context.Context, tool.Request) tool.Response {
		calls.Add(1)
		return tool.Succeeded(map[string]any{"value": 42})
	})

	fetch := func(id string) StageDefinition {
		return StageDefinition{
			ID:     id,
			Schema: valueSchema(id),
			Invoke: func(ctx context.Context, _ *Snapshot, tools tool.Invoker) (Result, error) {
				obj, _ := tools.Invoke(ctx, tool.Request{Tool: "get-price", Arguments: map[string]any{"coins": "bitcoin"}}).Object()
				return Result{Candidate: schema.Object{"value": obj["value"]}}, nil
			},
		}
	}

	e := fixedEngine(t, []StageDefinition{fetch("a"), fetch("b")}, tools)
	_, err := e.Execute(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "identical calls within a run are shared")

	_, err = e.Execute(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "a new run starts with an empty cache")

	uncached := fixedEngine(t, []StageDefinition{fetch("a"), fetch("b")}, tools, WithCallCache(false))
	_, err = uncached.Execute(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestEngine_ProgressEvents(t *testing.T) {
	rec := newRecorder()
	stages := []StageDefinition{
		rec.stage("a", nil, schema.Object{"value": 1.0}),
		rec.stage("b", nil, schema.Object{}),
	}
	pr := NewProgressReporter(len(stages))
	e := fixedEngine(t, stages, nil, WithProgress(pr))

	_, err := e.Execute(context.Background(), Input{})
	require.NoError(t, err)
	pr.Close()

	var got []string
	for ev := range pr.Subscribe() {
		assert.Equal(t, "run-1", ev.RunID)
		assert.Equal(t, 2, ev.Total)
		got = append(got, ev.Stage+":"+string(ev.Status))
	}
	assert.Equal(t, []string{
		"a:pending", "b:pending",
		"a:working", "a:complete",
		"b:working", "b:violated",
	}, got)
}

func TestNewEngine_RejectsBadStageLists(t *testing.T) {
	ok := func(context.Context, *Snapshot, tool.Invoker) (Result, error) { return Result{}, nil }

	tests := []struct {
		name   string
		stages []StageDefinition
		want   string
	}{
		{name: "empty", stages: nil, want: "no stages"},
		{
			name:   "forward dependency",
			stages: []StageDefinition{{ID: "a", DependsOn: []string{"b"}, Invoke: ok}, {ID: "b", Invoke: ok}},
			want:   `stage "a" depends on "b", which does not run before it`,
		},
		{
			name:   "self dependency",
			stages: []StageDefinition{{ID: "a", DependsOn: []string{"a"}, Invoke: ok}},
			want:   `stage "a" depends on "a"`,
		},
		{
			name:   "duplicate",
			stages: []StageDefinition{{ID: "a", Invoke: ok}, {ID: "a", Invoke: ok}},
			want:   `stage "a" declared twice`,
		},
		{
			name:   "missing id",
			stages: []StageDefinition{{Invoke: ok}},
			want:   "stage 0 has no id",
		},
		{
			name:   "missing invoke",
			stages: []StageDefinition{{ID: "a"}},
			want:   `stage "a" has no invoke function`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.stages, noTools())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewEngine([]StageDefinition{{ID: "a", Invoke: ok}}, nil)
	require.Error(t, err)
}

func TestEngine_StagesIsACopy(t *testing.T) {
	rec := newRecorder()
	e := fixedEngine(t, []StageDefinition{rec.stage("a", nil, schema.Object{"value": 1.0})}, nil)
	got := e.Stages()
	got[0].ID = "mutated"
	assert.Equal(t, "a", e.Stages()[0].ID)
}
