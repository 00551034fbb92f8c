package query

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type Conjunction string

const (
	And Conjunction = "and"
	Or  Conjunction = "or"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Conditions maps field names to the value they must equal. Entries whose
// value is nil are ignored.
type Conditions map[string]any

// DateRange narrows rows to Column between From and To, both inclusive.
type DateRange struct {
	Column string
	From   time.Time
	To     time.Time
}

// Join attaches Target to the base entity on Target.Key = base.On and
// filters on Target's columns.
type Join struct {
	Target     *Entity
	On         string
	Key        string
	Conditions Conditions
}

// Filter is everything a predicate is built from.
type Filter struct {
	Conditions  Conditions
	Joins       []Join
	DateRange   *DateRange
	Conjunction Conjunction
}

// Predicate is a compiled filter: JOIN clauses, a WHERE body without the
// keyword (empty means no filter) and positional arguments for $n markers.
type Predicate struct {
	Joins string
	Where string
	Args  []any
}

// SQL renders the clauses that follow "FROM table".
func (p Predicate) SQL() string {
	var b strings.Builder
	b.WriteString(p.Joins)
	if p.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.Where)
	}
	return b.String()
}

type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// Build compiles f against e. Every referenced field must be declared on the
// entity it is scoped to, otherwise ErrInvalidAttribute is returned before any
// SQL is produced.
func Build(e *Entity, f Filter) (Predicate, error) {
	var b builder
	return b.build(e, f)
}

func (b *builder) build(e *Entity, f Filter) (Predicate, error) {
	terms, err := b.equalities(e, f.Conditions)
	if err != nil {
		return Predicate{}, err
	}

	var joins strings.Builder
	for _, j := range f.Joins {
		clause, err := joinClause(e, j)
		if err != nil {
			return Predicate{}, err
		}
		joins.WriteString(clause)

		jt, err := b.equalities(j.Target, j.Conditions)
		if err != nil {
			return Predicate{}, err
		}
		terms = append(terms, jt...)
	}

	where := combine(terms, f.Conjunction)

	if dr := f.DateRange; dr != nil {
		column := dr.Column
		if column == "" {
			column = "date"
		}
		field, ok := e.Field(column)
		if !ok || (field.Type != Date && field.Type != Timestamp) {
			return Predicate{}, invalidAttribute(e.Name, column)
		}
		col := e.Table + "." + column
		bounds := col + " >= " + b.arg(dr.From) + " AND " + col + " <= " + b.arg(dr.To)
		if where == "" {
			where = bounds
		} else {
			where = where + " AND " + bounds
		}
	}

	return Predicate{Joins: joins.String(), Where: where, Args: b.args}, nil
}

func (b *builder) equalities(e *Entity, conds Conditions) ([]string, error) {
	names := make([]string, 0, len(conds))
	for name, v := range conds {
		if v != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	terms := make([]string, 0, len(names))
	for _, name := range names {
		field, ok := e.Field(name)
		if !ok {
			return nil, invalidAttribute(e.Name, name)
		}
		v, err := coerce(field, conds[name])
		if err != nil {
			return nil, &Error{Kind: ErrInvalidAttribute, Entity: e.Name, Message: "Invalid attribute for " + e.Name + ": " + name, Err: err}
		}
		terms = append(terms, e.Table+"."+name+" = "+b.arg(v))
	}
	return terms, nil
}

func joinClause(base *Entity, j Join) (string, error) {
	if j.Target == nil {
		return "", invalidAttribute(base.Name, "join target")
	}
	on, err := base.Column(j.On)
	if err != nil {
		return "", err
	}
	key, err := j.Target.Column(j.Key)
	if err != nil {
		return "", err
	}
	return " JOIN " + j.Target.Table + " ON " + key + " = " + on, nil
}

// combine joins terms with the conjunction. The result is parenthesised so a
// date range can be AND-ed after it without changing its meaning.
func combine(terms []string, c Conjunction) string {
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	}
	sep := " AND "
	if c == Or {
		sep = " OR "
	}
	return "(" + strings.Join(terms, sep) + ")"
}

func orderClause(e *Entity, column string, dir Direction) (string, error) {
	if column == "" {
		column = "id"
	}
	col, err := e.Column(column)
	if err != nil {
		return "", err
	}
	if dir == Desc {
		return " ORDER BY " + col + " DESC", nil
	}
	return " ORDER BY " + col + " ASC", nil
}
