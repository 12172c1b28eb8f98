package condition

import (
	"time"

	"github.com/dlclark/regexp2"
)

// Builder provides a fluent API for constructing condition trees, keeping
// call sites close to the literal object syntax of the original tooling
// while the evaluator works on the typed tree.
type Builder struct {
	cond Condition
}

// NewBuilder creates a new, empty condition builder. Building without
// adding clauses yields the universal matcher.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the constructed condition.
func (b *Builder) Build() *Condition {
	c := b.cond
	return &c
}

// Reset clears the builder back to the empty condition.
func (b *Builder) Reset() *Builder {
	b.cond = Condition{}
	return b
}

// ForRowIDs sets the row-ID selector. The selector overrides every other
// clause added to this builder.
func (b *Builder) ForRowIDs(ids ...int) *Builder {
	b.cond.RowID = &RowIDSelector{IDs: ids}
	return b
}

// Where begins a field clause for the given column.
func (b *Builder) Where(column string) *FieldBuilder {
	return &FieldBuilder{parent: b, column: column}
}

// And adds a nested condition whose clauses must all hold.
func (b *Builder) And(sub *Condition) *Builder {
	b.cond.Clauses = append(b.cond.Clauses, And(sub))
	return b
}

// Not adds a clause negating the whole nested condition.
func (b *Builder) Not(sub *Condition) *Builder {
	b.cond.Clauses = append(b.cond.Clauses, Not(sub))
	return b
}

// Or begins a group of field clauses of which any one matching suffices.
func (b *Builder) Or() *OrBuilder {
	return &OrBuilder{parent: b}
}

// FieldBuilder attaches a matcher to a pending field clause.
type FieldBuilder struct {
	parent *Builder
	column string
}

// Eq finishes the clause with literal equality.
func (fb *FieldBuilder) Eq(value any) *Builder {
	return fb.add(Literal{Value: value})
}

// In finishes the clause with list membership.
func (fb *FieldBuilder) In(values ...any) *Builder {
	return fb.add(OneOf{Values: values})
}

// Matches finishes the clause with a precompiled regex.
func (fb *FieldBuilder) Matches(re *regexp2.Regexp) *Builder {
	return fb.add(Regex{Pattern: re})
}

// MatchesPattern finishes the clause with an ECMAScript-flavored pattern,
// panicking if the pattern does not compile. Use Matches with a
// Pattern-compiled regex when the pattern comes from untrusted input.
func (fb *FieldBuilder) MatchesPattern(pattern string) *Builder {
	return fb.add(Regex{Pattern: MustCompilePattern(pattern)})
}

// On finishes the clause with instant equality against a date.
func (fb *FieldBuilder) On(at time.Time) *Builder {
	return fb.add(Date{At: at})
}

// Satisfies finishes the clause with a custom predicate.
func (fb *FieldBuilder) Satisfies(fn func(value any) bool) *Builder {
	return fb.add(Predicate(fn))
}

func (fb *FieldBuilder) add(m Matcher) *Builder {
	fb.parent.cond.Clauses = append(fb.parent.cond.Clauses, Clause{
		Field: &FieldClause{Column: fb.column, Match: m},
	})
	return fb.parent
}

// OrBuilder collects the alternatives of an OR clause.
type OrBuilder struct {
	parent *Builder
	fields []FieldClause
}

// Where begins a field alternative within the OR group.
func (ob *OrBuilder) Where(column string) *OrFieldBuilder {
	return &OrFieldBuilder{group: ob, column: column}
}

// End finalizes the OR group and returns to the main builder.
func (ob *OrBuilder) End() *Builder {
	ob.parent.cond.Clauses = append(ob.parent.cond.Clauses, Or(ob.fields...))
	return ob.parent
}

// OrFieldBuilder attaches a matcher to a pending OR alternative.
type OrFieldBuilder struct {
	group  *OrBuilder
	column string
}

// Eq adds a literal-equality alternative.
func (ofb *OrFieldBuilder) Eq(value any) *OrBuilder {
	return ofb.add(Literal{Value: value})
}

// In adds a list-membership alternative.
func (ofb *OrFieldBuilder) In(values ...any) *OrBuilder {
	return ofb.add(OneOf{Values: values})
}

// Matches adds a regex alternative.
func (ofb *OrFieldBuilder) Matches(re *regexp2.Regexp) *OrBuilder {
	return ofb.add(Regex{Pattern: re})
}

// MatchesPattern adds a regex alternative from a pattern string, panicking
// if the pattern does not compile.
func (ofb *OrFieldBuilder) MatchesPattern(pattern string) *OrBuilder {
	return ofb.add(Regex{Pattern: MustCompilePattern(pattern)})
}

// On adds a date alternative.
func (ofb *OrFieldBuilder) On(at time.Time) *OrBuilder {
	return ofb.add(Date{At: at})
}

// Satisfies adds a predicate alternative.
func (ofb *OrFieldBuilder) Satisfies(fn func(value any) bool) *OrBuilder {
	return ofb.add(Predicate(fn))
}

func (ofb *OrFieldBuilder) add(m Matcher) *OrBuilder {
	ofb.group.fields = append(ofb.group.fields, FieldClause{Column: ofb.column, Match: m})
	return ofb.group
}
