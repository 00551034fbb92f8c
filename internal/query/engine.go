package query

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so every operation
// runs inside whatever transaction scope the caller hands in.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Record is a row type with a surrogate primary key in column "id".
type Record interface {
	Key() int64
}

// Engine runs filtered reads and single-row writes for one entity. T must
// carry a `db` tag for every field of the entity and nothing else.
type Engine[T Record] struct {
	Entity *Entity

	// OnDegrade is called when List swallows an error.
	OnDegrade func(entity string, err error)
}

func New[T Record](e *Entity) *Engine[T] {
	return &Engine[T]{Entity: e}
}

type ListParams struct {
	Filter
	Skip    int
	Limit   int // 0 means unbounded
	OrderBy string
	Order   Direction
	CountBy string
}

type ListResult[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type Status struct {
	Status string `json:"status"`
}

// Count returns the number of rows matching f, counted on column countBy
// (default "id").
func (en *Engine[T]) Count(ctx context.Context, db DB, f Filter, countBy string) (int, error) {
	pred, err := Build(en.Entity, f)
	if err != nil {
		return 0, err
	}
	return en.count(ctx, db, pred, countBy)
}

func (en *Engine[T]) count(ctx context.Context, db DB, pred Predicate, countBy string) (int, error) {
	if countBy == "" {
		countBy = "id"
	}
	col, err := en.Entity.Column(countBy)
	if err != nil {
		return 0, err
	}
	var n int64
	sql := "SELECT COUNT(" + col + ") FROM " + en.Entity.Table + pred.SQL()
	if err := db.QueryRow(ctx, sql, pred.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", en.Entity.Table, err)
	}
	return int(n), nil
}

// List returns one page of matching rows and the total match count. The keys
// "skip", "limit" and "order" inside p.Conditions override the params.
// Attribute errors in the filter are returned; any failure inside the count or
// row sub-query degrades to an empty result.
func (en *Engine[T]) List(ctx context.Context, db DB, p ListParams) (ListResult[T], error) {
	p = liftPaging(p)

	// Count and rows get independently built predicates so paging never
	// leaks into the count.
	countPred, err := Build(en.Entity, p.Filter)
	if err != nil {
		return ListResult[T]{}, err
	}
	rowPred, err := Build(en.Entity, p.Filter)
	if err != nil {
		return ListResult[T]{}, err
	}

	n, err := en.count(ctx, db, countPred, p.CountBy)
	if err != nil {
		en.degrade(err)
		return ListResult[T]{Items: []T{}, Count: 0}, nil
	}
	items, err := en.rows(ctx, db, rowPred, p)
	if err != nil {
		en.degrade(err)
		return ListResult[T]{Items: []T{}, Count: 0}, nil
	}
	return ListResult[T]{Items: items, Count: n}, nil
}

func (en *Engine[T]) rows(ctx context.Context, db DB, pred Predicate, p ListParams) ([]T, error) {
	order, err := orderClause(en.Entity, p.OrderBy, p.Order)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT " + en.Entity.selectList() + " FROM " + en.Entity.Table)
	b.WriteString(pred.SQL())
	b.WriteString(order)
	args := pred.Args
	if p.Limit > 0 {
		args = append(args, p.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if p.Skip > 0 {
		args = append(args, p.Skip)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}

	rows, err := db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", en.Entity.Table, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", en.Entity.Table, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (en *Engine[T]) degrade(err error) {
	log.Printf("list degraded: entity=%s err=%v", en.Entity.Name, err)
	if en.OnDegrade != nil {
		en.OnDegrade(en.Entity.Name, err)
	}
}

func liftPaging(p ListParams) ListParams {
	if len(p.Conditions) == 0 {
		return p
	}
	conds := make(Conditions, len(p.Conditions))
	for k, v := range p.Conditions {
		conds[k] = v
	}
	if v, ok := conds["limit"]; ok {
		if n, err := toInt64(v); err == nil {
			p.Limit = int(n)
		}
		delete(conds, "limit")
	}
	if v, ok := conds["skip"]; ok {
		if n, err := toInt64(v); err == nil {
			p.Skip = int(n)
		}
		delete(conds, "skip")
	}
	if v, ok := conds["order"]; ok {
		if s, ok := v.(string); ok {
			p.Order = Direction(strings.ToLower(s))
		}
		delete(conds, "order")
	}
	p.Conditions = conds
	return p
}

type getOptions struct {
	orderBy string
	order   Direction
	message string
}

type GetOption func(*getOptions)

func OrderBy(column string, dir Direction) GetOption {
	return func(o *getOptions) { o.orderBy, o.order = column, dir }
}

// NotFoundMessage replaces the default "<Entity> not found" message.
func NotFoundMessage(msg string) GetOption {
	return func(o *getOptions) { o.message = msg }
}

// GetOne returns the single row whose fields equal conds. Zero matches and
// more than one match are both ErrNotFound.
func (en *Engine[T]) GetOne(ctx context.Context, db DB, conds Conditions, opts ...GetOption) (T, error) {
	var zero T
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	pred, err := Build(en.Entity, Filter{Conditions: conds})
	if err != nil {
		return zero, err
	}
	order := ""
	if o.orderBy != "" || o.order == Desc {
		if order, err = orderClause(en.Entity, o.orderBy, o.order); err != nil {
			return zero, err
		}
	}

	sql := "SELECT " + en.Entity.selectList() + " FROM " + en.Entity.Table + pred.SQL() + order + " LIMIT 2"
	rows, err := db.Query(ctx, sql, pred.Args...)
	if err != nil {
		return zero, notFound(en.Entity.Name, o.message, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, notFound(en.Entity.Name, o.message, err)
	}
	if len(items) != 1 {
		return zero, notFound(en.Entity.Name, o.message, nil)
	}
	return items[0], nil
}

// writable keeps only the declared, writable keys of fields and converts
// their values to column types. Unknown keys are dropped.
func (en *Engine[T]) writable(fields map[string]any) ([]string, []any, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if f, ok := en.Entity.Field(name); ok && f.Writable {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	values := make([]any, len(names))
	for i, name := range names {
		f, _ := en.Entity.Field(name)
		v, err := coerce(f, fields[name])
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
	}
	return names, values, nil
}

// Create inserts a row from fields. A ULID is assigned to "uuid" when the
// entity has one and the caller did not provide it.
func (en *Engine[T]) Create(ctx context.Context, db DB, fields map[string]any) (T, error) {
	var zero T
	in := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		in[k] = v
	}
	if en.Entity.Has("uuid") {
		if v, ok := in["uuid"]; !ok || v == nil {
			in["uuid"] = ulid.Make().String()
		}
	}

	names, values, err := en.writable(in)
	if err != nil {
		return zero, duplicateOrInvalid(en.Entity.Name, err)
	}

	var sql string
	if len(names) == 0 {
		sql = "INSERT INTO " + en.Entity.Table + " DEFAULT VALUES RETURNING " + en.Entity.returningList()
	} else {
		marks := make([]string, len(names))
		for i := range names {
			marks[i] = "$" + strconv.Itoa(i+1)
		}
		sql = "INSERT INTO " + en.Entity.Table + " (" + strings.Join(names, ", ") + ") VALUES (" +
			strings.Join(marks, ", ") + ") RETURNING " + en.Entity.returningList()
	}

	rows, err := db.Query(ctx, sql, values...)
	if err != nil {
		return zero, en.createError(err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, en.createError(err)
	}
	return row, nil
}

func (en *Engine[T]) createError(err error) error {
	if IsIntegrityViolation(err) {
		return duplicateOrInvalid(en.Entity.Name, err)
	}
	return fmt.Errorf("create %s: %w", en.Entity.Table, err)
}

// Update resolves the target with GetOne and writes only the writable keys
// present in fields. A key mapped to nil sets the column to NULL; an absent
// key leaves the column untouched.
func (en *Engine[T]) Update(ctx context.Context, db DB, conds Conditions, fields map[string]any) (T, error) {
	current, err := en.GetOne(ctx, db, conds)
	if err != nil {
		return current, err
	}

	names, values, err := en.writable(fields)
	if err != nil {
		return current, updateFailed(en.Entity.Name, err)
	}
	if len(names) == 0 {
		return current, nil
	}

	sets := make([]string, len(names), len(names)+1)
	for i, name := range names {
		sets[i] = name + " = $" + strconv.Itoa(i+1)
	}
	if en.Entity.Has("last_modified") {
		sets = append(sets, "last_modified = now()")
	}
	values = append(values, current.Key())
	sql := "UPDATE " + en.Entity.Table + " SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(values)) + " RETURNING " + en.Entity.returningList()

	rows, err := db.Query(ctx, sql, values...)
	if err != nil {
		return current, updateFailed(en.Entity.Name, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return current, updateFailed(en.Entity.Name, err)
	}
	return row, nil
}

// Delete resolves the target with GetOne and removes it.
func (en *Engine[T]) Delete(ctx context.Context, db DB, conds Conditions) (Status, error) {
	current, err := en.GetOne(ctx, db, conds)
	if err != nil {
		return Status{}, err
	}
	if _, err := db.Exec(ctx, "DELETE FROM "+en.Entity.Table+" WHERE id = $1", current.Key()); err != nil {
		return Status{}, inUseOrInvalid(en.Entity.Name, err)
	}
	return Status{Status: "success"}, nil
}
