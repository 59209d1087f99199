// Package assertion guards derived fields of a stage output against the raw
// fields they were computed from. A rule that cannot be verified fails
// closed: the derived field is nulled and the failure is noted.
package assertion

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/chartflow/internal/schema"
)

// DefaultNotesField is the output key that receives assertion notes.
const DefaultNotesField = "notes"

// Rule re-checks one derived field of a candidate.
type Rule struct {
	// ID appears in the note appended on failure.
	ID string

	// Field is the derived field that is nulled when the rule fails.
	Field string

	// Inputs are the raw fields the predicate reads. A null or missing
	// input fails the rule without consulting the predicate.
	Inputs []string

	// Predicate reports whether the derived value is consistent with its
	// inputs. The derived value itself is available under Field.
	Predicate func(in Inputs) bool

	// Related fields are overwritten when the rule fails, after Field is
	// nulled.
	Related []Downgrade
}

// Downgrade sets a related field to Value when a rule fails. Values listed
// in Keep already rank at or below Value and are left in place.
type Downgrade struct {
	Field string
	Value any
	Keep  []any
}

func (d Downgrade) apply(candidate schema.Object) {
	cur := candidate[d.Field]
	for _, k := range d.Keep {
		if cur == k {
			return
		}
	}
	candidate[d.Field] = d.Value
}

// Failure records one rule that nulled its field.
type Failure struct {
	RuleID string
	Field  string
	Reason string
}

// Note is the text appended to the notes field.
func (f Failure) Note() string {
	return "assertion failed: " + f.RuleID
}

// Inputs exposes the fields a predicate may read.
type Inputs map[string]any

// Num returns the named value as a float64.
func (in Inputs) Num(name string) (float64, bool) {
	return schema.AsFloat(in[name])
}

// Str returns the named value as a string, or "" when it is not one.
func (in Inputs) Str(name string) string {
	s, _ := in[name].(string)
	return s
}

// Validator applies an ordered rule set to candidates of one stage.
type Validator struct {
	Rules      []Rule
	NotesField string
}

// New creates a Validator that writes notes to DefaultNotesField.
func New(rules ...Rule) *Validator {
	return &Validator{Rules: rules, NotesField: DefaultNotesField}
}

// Apply evaluates every rule in declaration order against candidate and
// mutates it in place. Later rules observe fields nulled by earlier ones, so
// a chain of dependent derived values degrades together. A rule whose
// derived field is already null records no failure and no note, but its
// related fields are still downgraded. Apply returns the failures in the
// order they occurred.
func (v *Validator) Apply(candidate schema.Object) []Failure {
	if v == nil || candidate == nil {
		return nil
	}

	var failures []Failure
	for _, r := range v.Rules {
		if candidate[r.Field] == nil {
			r.downgrade(candidate)
			continue
		}

		reason := evaluate(r, candidate)
		if reason == "" {
			continue
		}

		candidate[r.Field] = nil
		r.downgrade(candidate)
		f := Failure{RuleID: r.ID, Field: r.Field, Reason: reason}
		failures = append(failures, f)
		v.appendNote(candidate, f.Note())
	}
	return failures
}

func (r Rule) downgrade(candidate schema.Object) {
	for _, d := range r.Related {
		d.apply(candidate)
	}
}

// evaluate returns "" when the rule holds, otherwise why it does not.
func evaluate(r Rule, candidate schema.Object) string {
	in := make(Inputs, len(r.Inputs)+1)
	in[r.Field] = candidate[r.Field]

	for _, name := range r.Inputs {
		val, ok := candidate[name]
		if !ok || val == nil {
			return fmt.Sprintf("input %q is null", name)
		}
		in[name] = val
	}

	if r.Predicate == nil || !r.Predicate(in) {
		return "predicate false"
	}
	return ""
}

func (v *Validator) appendNote(candidate schema.Object, note string) {
	if v.NotesField == "" {
		return
	}
	existing, _ := candidate[v.NotesField].(string)
	if strings.TrimSpace(existing) == "" {
		candidate[v.NotesField] = note
		return
	}
	candidate[v.NotesField] = existing + "; " + note
}

// Between builds a rule requiring low <= field <= high, where all three are
// fields of the candidate.
func Between(id, field, low, high string, related ...Downgrade) Rule {
	return Rule{
		ID:     id,
		Field:  field,
		Inputs: []string{low, high},
		Predicate: func(in Inputs) bool {
			v, ok1 := in.Num(field)
			lo, ok2 := in.Num(low)
			hi, ok3 := in.Num(high)
			return ok1 && ok2 && ok3 && lo <= v && v <= hi
		},
		Related: related,
	}
}

// Bounded builds a rule requiring min <= field <= max for constant bounds.
func Bounded(id, field string, min, max float64, related ...Downgrade) Rule {
	return Rule{
		ID:    id,
		Field: field,
		Predicate: func(in Inputs) bool {
			v, ok := in.Num(field)
			return ok && min <= v && v <= max
		},
		Related: related,
	}
}
