package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dusk-indust/chartflow/internal/assertion"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceSchema() schema.Schema {
	return schema.Schema{
		Name: "price",
		Fields: []schema.Field{
			{Name: "s1", Type: schema.TypeNumber, Required: true},
			{Name: "r1", Type: schema.TypeNumber, Required: true},
			{Name: "price", Type: schema.TypeNumber, Required: true, Nullable: true},
			{Name: "notes", Type: schema.TypeString, Required: true},
		},
	}
}

func returning(candidate any, toolErrs ...*tool.Error) InvokeFunc {
	return func(context.Context, *Snapshot, tool.Invoker) (Result, error) {
		return Result{Candidate: candidate, ToolErrors: toolErrs}, nil
	}
}

func noTools() tool.Invoker {
	return tool.InvokerFunc(func(_ context.Context, req tool.Request) tool.Response {
		return tool.Failed("unknown tool %q", req.Tool)
	})
}

func TestExecutor_Accepted(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Rules:  []assertion.Rule{assertion.Between("price-in-range", "price", "s1", "r1")},
		Invoke: returning(schema.Object{"s1": 10.0, "r1": 20.0, "price": 15.0, "notes": ""}),
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusAccepted, entry.Status)
	assert.Equal(t, 15.0, entry.Value["price"])
	assert.Empty(t, entry.Assertions)
	assert.Empty(t, entry.Reason)
}

func TestExecutor_AssertionNullsButStaysAccepted(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Rules:  []assertion.Rule{assertion.Between("price-in-range", "price", "s1", "r1")},
		Invoke: returning(schema.Object{"s1": 10.0, "r1": 20.0, "price": 25.0, "notes": "read from chart"}),
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	require.Equal(t, StatusAccepted, entry.Status)
	assert.Nil(t, entry.Value["price"])
	assert.Equal(t, "read from chart; assertion failed: price-in-range", entry.Value["notes"])
	require.Len(t, entry.Assertions, 1)
	assert.Equal(t, "price-in-range", entry.Assertions[0].RuleID)
}

func TestExecutor_DoesNotMutateCandidate(t *testing.T) {
	candidate := schema.Object{"s1": 10.0, "r1": 20.0, "price": 25.0, "notes": ""}
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Rules:  []assertion.Rule{assertion.Between("price-in-range", "price", "s1", "r1")},
		Invoke: returning(candidate),
	}

	NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, 25.0, candidate["price"])
}

func TestExecutor_Violated(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Invoke: returning(schema.Object{"s1": 10.0, "price": "high", "extra": 1}),
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusViolated, entry.Status)
	assert.Nil(t, entry.Value)
	require.NotNil(t, entry.Violation)
	assert.Equal(t, []string{
		`missing required field "r1"`,
		`field "price": want number, got string`,
		`missing required field "notes"`,
		`unexpected field "extra"`,
	}, entry.Violation.Problems)
	assert.Equal(t, entry.Violation.Reason(), entry.Reason)
}

func TestExecutor_NonObjectCandidateIsViolation(t *testing.T) {
	def := StageDefinition{ID: "levels", Schema: priceSchema(), Invoke: returning("not an object")}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusViolated, entry.Status)
	assert.Contains(t, entry.Reason, "want object")
}

func TestExecutor_StageErrorIsFailure(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Invoke: func(context.Context, *Snapshot, tool.Invoker) (Result, error) {
			return Result{}, errors.New("analyzer contract broken")
		},
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, "analyzer contract broken", entry.Reason)
}

func TestExecutor_PanicIsFailure(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Invoke: func(context.Context, *Snapshot, tool.Invoker) (Result, error) {
			var m map[string]int
			m["boom"] = 1
			return Result{}, nil
		},
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Contains(t, entry.Reason, "stage levels: panic:")
}

func TestExecutor_MissingInvoke(t *testing.T) {
	entry := NewExecutor(nil).Execute(context.Background(), StageDefinition{ID: "x"}, &Snapshot{}, noTools())
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Contains(t, entry.Reason, "no invoke function")
}

func TestExecutor_CancelledDuringStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Invoke: func(ctx context.Context, _ *Snapshot, tools tool.Invoker) (Result, error) {
			cancel()
			resp := tools.Invoke(ctx, tool.Request{Tool: "get-price"})
			return Result{
				Candidate:  schema.Object{"s1": 1.0, "r1": 2.0, "price": nil, "notes": ""},
				ToolErrors: []*tool.Error{resp.Err("get-price")},
			}, nil
		},
	}

	entry := NewExecutor(nil).Execute(ctx, def, &Snapshot{}, tool.InvokerFunc(func(ctx context.Context, _ tool.Request) tool.Response {
		if ctx.Err() != nil {
			return tool.Failed("cancelled")
		}
		return tool.Succeeded(1)
	}))
	assert.Equal(t, StatusFailed, entry.Status)
	assert.Equal(t, "cancelled", entry.Reason)
	require.Len(t, entry.ToolErrors, 1)
	assert.Equal(t, "cancelled", entry.ToolErrors[0].Diagnostic)
}

func TestExecutor_RecordsToolErrors(t *testing.T) {
	def := StageDefinition{
		ID:     "levels",
		Schema: priceSchema(),
		Invoke: returning(
			schema.Object{"s1": 10.0, "r1": 20.0, "price": nil, "notes": "[TOOL_FAIL] get-price: timeout"},
			&tool.Error{Tool: "get-price", Diagnostic: "timeout"},
		),
	}

	entry := NewExecutor(nil).Execute(context.Background(), def, &Snapshot{}, noTools())
	assert.Equal(t, StatusAccepted, entry.Status)
	require.Len(t, entry.ToolErrors, 1)
	assert.Equal(t, "get-price", entry.ToolErrors[0].Tool)
}

func TestExecutor_Elapsed(t *testing.T) {
	x := NewExecutor(nil)
	tick := time.Unix(100, 0)
	x.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	entry := x.Execute(context.Background(), StageDefinition{ID: "x", Schema: priceSchema(), Invoke: returning(nil)}, &Snapshot{}, noTools())
	assert.Equal(t, time.Second, entry.Elapsed)
}

func TestNotesField(t *testing.T) {
	assert.Equal(t, "notes", notesField(priceSchema()))
	assert.Equal(t, "", notesField(schema.Schema{Fields: []schema.Field{{Name: "x", Type: schema.TypeNumber}}}))
	assert.Equal(t, "", notesField(schema.Schema{Fields: []schema.Field{{Name: "notes", Type: schema.TypeArray}}}))
}
