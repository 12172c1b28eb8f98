package condition

import (
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/harishpvv/SheetUtils/core/row"
)

// legacyPredicateDatePattern triggers date conversion before a Predicate
// matcher is invoked. Note the shape: two digits, two digits, four digits —
// NOT the ISO YYYY-MM-DD form used everywhere else in this package. The
// asymmetry is historical; conditions written against the original sheet
// tooling rely on it, so it is preserved rather than fixed.
var legacyPredicateDatePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// Evaluator applies conditions to rows. It carries the sheet's resolved
// timezone, injected once at construction, which anchors every string to
// date conversion the matcher performs.
type Evaluator struct {
	loc    *time.Location
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator. A nil location defaults to UTC and a
// nil logger to a no-op logger.
func NewEvaluator(loc *time.Location, logger *zap.Logger) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{loc: loc, logger: logger}
}

// Location returns the timezone the evaluator resolves date strings in.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Matches reports whether the row satisfies the condition. It is pure:
// no side effects, no errors. An empty or nil condition matches every row.
// A row-ID selector on the condition overrides all other clauses. Otherwise
// clauses are evaluated in order and combined with AND, short-circuiting on
// the first failure.
func (e *Evaluator) Matches(r row.Row, cond *Condition) bool {
	if cond.IsEmpty() {
		return true
	}
	if cond.RowID != nil {
		for _, id := range cond.RowID.IDs {
			if id == r.ID {
				return true
			}
		}
		return false
	}
	for _, cl := range cond.Clauses {
		if !e.matchClause(r, cl) {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchClause(r row.Row, cl Clause) bool {
	switch {
	case cl.And != nil:
		return e.Matches(r, cl.And)
	case cl.Not != nil:
		return !e.Matches(r, cl.Not)
	case cl.Or != nil:
		for _, fc := range cl.Or {
			if e.matchField(r, fc) {
				return true
			}
		}
		return false
	case cl.Field != nil:
		return e.matchField(r, *cl.Field)
	}
	// A clause with no arm set constrains nothing.
	return true
}

// matchField applies one field matcher to the row's cell value. Matcher
// kinds are checked in priority order: regex, predicate, list, date, then
// literal equality. Anything unrecognized falls through to literal
// equality, keeping malformed input permissive instead of raising.
func (e *Evaluator) matchField(r row.Row, fc FieldClause) bool {
	val := r.Cells[fc.Column]

	switch m := fc.Match.(type) {
	case Regex:
		ok, err := m.Pattern.MatchString(row.DisplayString(val))
		if err != nil {
			e.logger.Debug("regex evaluation aborted",
				zap.String("column", fc.Column), zap.Error(err))
			return false
		}
		return ok
	case Predicate:
		if s, isStr := val.(string); isStr && legacyPredicateDatePattern.MatchString(s) {
			if t, ok := row.ToDate(s, e.loc); ok {
				return m(t)
			}
		}
		return m(val)
	case OneOf:
		for _, entry := range m.Values {
			if at, isDate := entry.(time.Time); isDate {
				if converted, ok := row.ToDate(val, e.loc); ok && sameInstant(converted, at) {
					return true
				}
				continue
			}
			if equalValues(val, entry) {
				return true
			}
		}
		return false
	case Date:
		converted, ok := row.ToDate(val, e.loc)
		return ok && sameInstant(converted, m.At)
	case Literal:
		return equalValues(val, m.Value)
	default:
		return equalValues(val, fc.Match)
	}
}

// sameInstant compares two times at millisecond precision.
func sameInstant(a, b time.Time) bool {
	return a.UnixMilli() == b.UnixMilli()
}

// equalValues is strict equality over cell scalars. Numeric values compare
// numerically regardless of Go width, since the sheet has a single number
// type; a string never equals a number, however numeric it looks.
func equalValues(a, b any) bool {
	af, aNum := row.Numeric(a)
	bf, bNum := row.Numeric(b)
	if aNum || bNum {
		return aNum && bNum && af == bf
	}
	return a == b
}
