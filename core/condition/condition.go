// Package condition defines the declarative predicate language used to
// select sheet rows, and the evaluator that applies it. A condition is a
// tree of clauses: field matchers (equality, regex, membership, date,
// custom predicate), boolean composites (and, or, not) and the row-ID
// selector. Clauses at the same level combine with implicit AND.
package condition

import (
	"time"

	"github.com/dlclark/regexp2"
)

// Matcher is the union of field matcher variants. Exactly one concrete type
// backs each value; the evaluator dispatches on the dynamic type.
type Matcher interface {
	matcher()
}

// Literal matches when the cell strictly equals Value. This is also the
// explicit fallback arm: any matcher the evaluator does not recognize is
// treated as literal equality rather than rejected.
type Literal struct {
	Value any
}

func (Literal) matcher() {}

// Regex matches when the pattern matches the display form of the cell.
// Patterns use ECMAScript syntax so conditions written against the
// original sheet tooling keep their meaning.
type Regex struct {
	Pattern *regexp2.Regexp
}

func (Regex) matcher() {}

// Predicate is a unary function matcher. The evaluator converts legacy
// dash-date strings to time values before invoking it; see
// Evaluator.matchField for the exact rule.
type Predicate func(value any) bool

func (Predicate) matcher() {}

// OneOf matches when any listed value equals the cell. Entries that are
// time.Time values compare by instant instead of by strict equality.
type OneOf struct {
	Values []any
}

func (OneOf) matcher() {}

// Date matches when the cell converts to the same instant, at millisecond
// precision.
type Date struct {
	At time.Time
}

func (Date) matcher() {}

// FieldClause pairs one column name with its matcher.
type FieldClause struct {
	Column string
	Match  Matcher
}

// RowIDSelector selects rows by snapshot position. When present on a
// condition it overrides every other clause of that condition.
type RowIDSelector struct {
	IDs []int
}

// Clause is one entry in a condition. Exactly one arm is set; a clause
// with no arm set matches everything.
type Clause struct {
	Field *FieldClause
	And   *Condition
	Or    []FieldClause
	Not   *Condition
}

// Condition is an ordered list of clauses combined with implicit AND,
// optionally overridden by a row-ID selector. The zero value (and nil)
// matches every row.
type Condition struct {
	RowID   *RowIDSelector
	Clauses []Clause
}

// IsEmpty reports whether the condition constrains nothing.
func (c *Condition) IsEmpty() bool {
	return c == nil || (c.RowID == nil && len(c.Clauses) == 0)
}

// MustCompilePattern compiles an ECMAScript-flavored pattern for use in a
// Regex matcher, panicking on invalid input. Intended for patterns known
// at build time, mirroring regexp.MustCompile.
func MustCompilePattern(pattern string) *regexp2.Regexp {
	return regexp2.MustCompile(pattern, regexp2.ECMAScript)
}

// Eq builds a literal-equality matcher.
func Eq(value any) Matcher { return Literal{Value: value} }

// Pattern builds a regex matcher from an ECMAScript-flavored pattern.
func Pattern(pattern string) (Matcher, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	return Regex{Pattern: re}, nil
}

// AnyOf builds a list-membership matcher.
func AnyOf(values ...any) Matcher { return OneOf{Values: values} }

// On builds an instant-equality date matcher.
func On(at time.Time) Matcher { return Date{At: at} }

// Satisfies builds a predicate matcher.
func Satisfies(fn func(value any) bool) Matcher { return Predicate(fn) }

// And wraps a condition so all of its clauses must hold.
func And(c *Condition) Clause { return Clause{And: c} }

// Or builds a clause that holds when any of the field clauses matches.
// An empty list never matches.
func Or(fields ...FieldClause) Clause {
	if fields == nil {
		fields = []FieldClause{}
	}
	return Clause{Or: fields}
}

// Not negates a whole nested condition.
func Not(c *Condition) Clause { return Clause{Not: c} }

// Where builds a single field clause.
func Where(column string, m Matcher) FieldClause {
	return FieldClause{Column: column, Match: m}
}

// ByRowID builds a condition selecting rows by snapshot position.
func ByRowID(ids ...int) *Condition {
	return &Condition{RowID: &RowIDSelector{IDs: ids}}
}
