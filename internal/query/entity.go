package query

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FieldType int

const (
	Int FieldType = iota
	Text
	Numeric
	Date
	Timestamp
)

// Field is one column of an entity. Only Writable fields are accepted by
// Create and Update; any field may appear in a predicate.
type Field struct {
	Name     string
	Type     FieldType
	Writable bool
}

func Col(name string, t FieldType) Field      { return Field{Name: name, Type: t, Writable: true} }
func ReadOnly(name string, t FieldType) Field { return Field{Name: name, Type: t} }

// IdentityFields are the columns every top-level entity carries.
func IdentityFields() []Field {
	return []Field{
		ReadOnly("id", Int),
		Col("uuid", Text),
		Col("date", Date),
		ReadOnly("created_at", Timestamp),
		ReadOnly("last_modified", Timestamp),
	}
}

// Entity describes a table: its name for messages, its columns and their
// types. It replaces attribute lookup by name with an explicit registry.
type Entity struct {
	Name   string
	Table  string
	Fields []Field

	index map[string]Field
}

func NewEntity(name, table string, fields ...Field) *Entity {
	e := &Entity{Name: name, Table: table, Fields: fields, index: make(map[string]Field, len(fields))}
	for _, f := range fields {
		e.index[f.Name] = f
	}
	return e
}

func (e *Entity) Field(name string) (Field, bool) {
	f, ok := e.index[name]
	return f, ok
}

func (e *Entity) Has(name string) bool {
	_, ok := e.index[name]
	return ok
}

// Column returns the table-qualified column for name.
func (e *Entity) Column(name string) (string, error) {
	if !e.Has(name) {
		return "", invalidAttribute(e.Name, name)
	}
	return e.Table + "." + name, nil
}

func (e *Entity) selectList() string {
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = e.Table + "." + f.Name
	}
	return strings.Join(cols, ", ")
}

func (e *Entity) returningList() string {
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = f.Name
	}
	return strings.Join(cols, ", ")
}

// coerce converts loosely typed input (JSON numbers, query-string text) into
// the Go value the column type expects. nil passes through as SQL NULL.
func coerce(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case Int:
		return toInt64(v)
	case Numeric:
		return toDecimal(v)
	case Text:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return nil, fmt.Errorf("%s: expected text, got %T", f.Name, v)
	case Date:
		return toTime(v, time.DateOnly)
	case Timestamp:
		return toTime(v, time.RFC3339)
	}
	return v, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("expected integer, got %v", t)
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	}
	return decimal.Decimal{}, fmt.Errorf("expected number, got %T", v)
}

func toTime(v any, layout string) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		if ts, err := time.Parse(layout, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		return time.Parse(time.DateOnly, t)
	}
	return time.Time{}, fmt.Errorf("expected time, got %T", v)
}
