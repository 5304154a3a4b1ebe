/*
Package query composes parameterized SELECT statements from predicate objects.

PURPOSE:
  Optional filters are folded into a single WHERE clause without string
  concatenation of user input: every predicate renders placeholder SQL
  plus its own argument list, and the builder ANDs them together.

BASE PREDICATE:
  A builder starts from True. With no filters the statement carries no
  WHERE clause at all; each active filter adds exactly one AND term.

CASE FOLDING:
  Case-insensitive predicates call FoldFunc, a scalar function the store
  registers on every connection (Unicode lower-casing). SQLite's own LOWER
  and LIKE only fold ASCII, which breaks names such as "ÁGUA" vs "água".

SEE ALSO:
  - store/sqlite/sqlite.go: registers FoldFunc
  - agency/listing.go: the reservation listing built with this package
*/
package query

import (
	"strings"
)

// FoldFunc is the SQL function used for case-insensitive comparisons.
const FoldFunc = "casefold"

// likeEscape is the escape character used in LIKE patterns.
const likeEscape = `\`

// Predicate renders one boolean SQL expression and its arguments.
type Predicate interface {
	SQL() (string, []any)
}

// True is the neutral predicate of a conjunction.
var True Predicate = trueP{}

type trueP struct{}

func (trueP) SQL() (string, []any) { return "1 = 1", nil }

// And is the conjunction of its predicates. True terms are dropped.
type And []Predicate

func (a And) SQL() (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, p := range a {
		if p == nil || p == True {
			continue
		}
		s, pa := p.SQL()
		parts = append(parts, "("+s+")")
		args = append(args, pa...)
	}
	if len(parts) == 0 {
		return True.SQL()
	}
	return strings.Join(parts, " AND "), args
}

// Contains matches rows whose column contains Value, ignoring case.
// LIKE wildcards in Value are matched literally.
type Contains struct {
	Column string
	Value  string
}

func (c Contains) SQL() (string, []any) {
	pattern := "%" + escapeLike(strings.ToLower(c.Value)) + "%"
	return folded(c.Column) + ` LIKE ? ESCAPE '` + likeEscape + `'`, []any{pattern}
}

// OneOf matches rows whose column equals one of Values, ignoring case.
type OneOf struct {
	Column string
	Values []string
}

func (o OneOf) SQL() (string, []any) {
	if len(o.Values) == 0 {
		return "1 = 0", nil
	}
	args := make([]any, len(o.Values))
	marks := make([]string, len(o.Values))
	for i, v := range o.Values {
		args[i] = strings.ToLower(v)
		marks[i] = "?"
	}
	return folded(o.Column) + " IN (" + strings.Join(marks, ", ") + ")", args
}

// YearMonth matches rows whose date column falls in the given year and
// month. NULL dates never match.
type YearMonth struct {
	Column string
	Year   int
	Month  int
}

func (y YearMonth) SQL() (string, []any) {
	return "CAST(strftime('%Y', " + y.Column + ") AS INTEGER) = ? AND " +
		"CAST(strftime('%m', " + y.Column + ") AS INTEGER) = ?", []any{y.Year, y.Month}
}

func folded(column string) string {
	return FoldFunc + "(COALESCE(CAST(" + column + " AS TEXT), ''))"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder accumulates predicates on top of a base SELECT ... FROM ... JOIN.
type Builder struct {
	base    string
	where   And
	orderBy string
}

// Select starts a builder. base must not contain a WHERE clause.
func Select(base string) *Builder {
	return &Builder{base: base}
}

// Where adds a predicate to the conjunction.
func (b *Builder) Where(p Predicate) *Builder {
	b.where = append(b.where, p)
	return b
}

// OrderBy sets the ORDER BY expression.
func (b *Builder) OrderBy(expr string) *Builder {
	b.orderBy = expr
	return b
}

// Len returns the number of active (non-True) predicates.
func (b *Builder) Len() int {
	n := 0
	for _, p := range b.where {
		if p != nil && p != True {
			n++
		}
	}
	return n
}

// Build renders the statement and its positional arguments.
func (b *Builder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString(b.base)

	var args []any
	if b.Len() > 0 {
		cond, a := b.where.SQL()
		sb.WriteString(" WHERE ")
		sb.WriteString(cond)
		args = a
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}
	return sb.String(), args
}
