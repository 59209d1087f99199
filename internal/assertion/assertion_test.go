package assertion

import (
	"testing"

	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetween_Passes(t *testing.T) {
	v := New(Between("price-in-range", "price", "S1", "R1"))
	c := schema.Object{"S1": 10.0, "R1": 20.0, "price": 15.0, "notes": nil}

	failures := v.Apply(c)

	assert.Empty(t, failures)
	assert.Equal(t, 15.0, c["price"])
	assert.Nil(t, c["notes"])
}

func TestBetween_FailsAndNotes(t *testing.T) {
	v := New(Between("price-in-range", "price", "S1", "R1"))
	c := schema.Object{"S1": 10.0, "R1": 20.0, "price": 25.0, "notes": "existing"}

	failures := v.Apply(c)

	require.Len(t, failures, 1)
	assert.Equal(t, "price-in-range", failures[0].RuleID)
	assert.Equal(t, "predicate false", failures[0].Reason)
	assert.Nil(t, c["price"])
	assert.Equal(t, "existing; assertion failed: price-in-range", c["notes"])
}

func TestApply_FailClosedOnNullInput(t *testing.T) {
	called := false
	rule := Rule{
		ID:     "never-assume-true",
		Field:  "derived",
		Inputs: []string{"raw"},
		Predicate: func(Inputs) bool {
			called = true
			return true
		},
	}

	for _, c := range []schema.Object{
		{"derived": 1.0, "raw": nil},
		{"derived": 1.0},
	} {
		failures := New(rule).Apply(c)
		require.Len(t, failures, 1)
		assert.Nil(t, c["derived"])
		assert.Contains(t, failures[0].Reason, `input "raw" is null`)
		assert.Equal(t, "assertion failed: never-assume-true", c["notes"])
	}
	assert.False(t, called, "predicate must not run when an input is missing")
}

func TestApply_RelatedDowngrade(t *testing.T) {
	v := New(Between("price-in-range", "price_now", "range_low", "range_high",
		Downgrade{Field: "tool_status", Value: "TOOL_MISMATCH"}))
	c := schema.Object{
		"price_now":   99.0,
		"range_low":   10.0,
		"range_high":  20.0,
		"tool_status": "TOOL_SUCCESS",
	}

	v.Apply(c)

	assert.Nil(t, c["price_now"])
	assert.Equal(t, "TOOL_MISMATCH", c["tool_status"])
}

func TestApply_ChainSeesEarlierNullification(t *testing.T) {
	first := Between("price-in-range", "price", "low", "high")
	second := Rule{
		ID:        "delta-needs-price",
		Field:     "delta",
		Inputs:    []string{"price"},
		Predicate: func(Inputs) bool { return true },
	}
	c := schema.Object{"price": 50.0, "low": 1.0, "high": 2.0, "delta": 3.5}

	failures := New(first, second).Apply(c)

	require.Len(t, failures, 2)
	assert.Equal(t, "price-in-range", failures[0].RuleID)
	assert.Equal(t, "delta-needs-price", failures[1].RuleID)
	assert.Nil(t, c["price"])
	assert.Nil(t, c["delta"], "dependent value must not survive its nulled input")
	assert.Equal(t, "assertion failed: price-in-range; assertion failed: delta-needs-price", c["notes"])
}

func TestApply_AlreadyNullFieldStillDowngradesRelated(t *testing.T) {
	c := schema.Object{"wp": nil, "tier": "high"}
	failures := New(Bounded("wp-range", "wp", 0, 100, Downgrade{Field: "tier", Value: nil})).Apply(c)

	assert.Empty(t, failures)
	assert.Nil(t, c["tier"], "a related field must not outlive a null derived value")
	_, hasNotes := c["notes"]
	assert.False(t, hasNotes)
}

func TestApply_DowngradeKeepsLowerValues(t *testing.T) {
	rule := Bounded("price", "p", 0, 10, Downgrade{Field: "status", Value: "MISMATCH", Keep: []any{"FAIL"}})

	failed := schema.Object{"p": nil, "status": "FAIL"}
	New(rule).Apply(failed)
	assert.Equal(t, "FAIL", failed["status"])

	stale := schema.Object{"p": nil, "status": "SUCCESS"}
	New(rule).Apply(stale)
	assert.Equal(t, "MISMATCH", stale["status"])

	bad := schema.Object{"p": 50.0, "status": "FAIL"}
	require.Len(t, New(rule).Apply(bad), 1)
	assert.Equal(t, "FAIL", bad["status"])
}

func TestBounded(t *testing.T) {
	rule := Bounded("wp-range", "wp", 0, 100, Downgrade{Field: "tier", Value: nil})

	ok := schema.Object{"wp": 55.0, "tier": "high"}
	assert.Empty(t, New(rule).Apply(ok))
	assert.Equal(t, "high", ok["tier"])

	bad := schema.Object{"wp": 140.0, "tier": "high"}
	assert.Len(t, New(rule).Apply(bad), 1)
	assert.Nil(t, bad["wp"])
	assert.Nil(t, bad["tier"])
}

func TestApply_NotesFieldDisabled(t *testing.T) {
	v := &Validator{Rules: []Rule{Bounded("r", "x", 0, 1)}}
	c := schema.Object{"x": 5.0}

	v.Apply(c)

	assert.Nil(t, c["x"])
	assert.NotContains(t, c, "notes")
}
