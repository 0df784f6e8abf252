package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row scoped to the caller does not exist.
var ErrNotFound = errors.New("record not found")

// Op is a filter operator understood by the row store.
type Op string

const (
	OpEq     Op = "eq"
	OpIn     Op = "in"
	OpGte    Op = "gte"
	OpLte    Op = "lte"
	OpIsNull Op = "is_null"
)

// Condition filters rows on a single column.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Condition  { return Condition{Column: column, Op: OpEq, Value: value} }
func In(column string, values any) Condition { return Condition{Column: column, Op: OpIn, Value: values} }
func Gte(column string, value any) Condition { return Condition{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Condition { return Condition{Column: column, Op: OpLte, Value: value} }

// IsNull matches NULL columns, or non-NULL ones when null is false.
func IsNull(column string, null bool) Condition {
	return Condition{Column: column, Op: OpIsNull, Value: null}
}

// Order sorts a select on one column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a filtered select.
type Query struct {
	Columns []string
	Where   []Condition
	Order   []Order
	Limit   int
}

// Assignment is one column of an update patch.
type Assignment struct {
	Column string
	Value  any
}

// Set builds an assignment.
func Set(column string, value any) Assignment {
	return Assignment{Column: column, Value: value}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgxPool interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ querier = (pgx.Tx)(nil)

// RowStore issues the generic table operations every typed repository is built on.
type RowStore struct {
	db querier
}

// NewRowStore wraps a pool or a transaction.
func NewRowStore(db querier) *RowStore {
	return &RowStore{db: db}
}

// Select runs a filtered select. Callers own closing the returned rows.
func (s *RowStore) Select(ctx context.Context, table string, q Query) (pgx.Rows, error) {
	sql, args, err := buildSelect(table, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

// Count returns the number of rows matching where.
func (s *RowStore) Count(ctx context.Context, table string, where []Condition) (int, error) {
	clause, args, err := buildWhere(where, 1)
	if err != nil {
		return 0, err
	}
	tbl, err := ident(table)
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+tbl+clause, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// Insert adds rows and returns the requested columns of the inserted rows.
func (s *RowStore) Insert(ctx context.Context, table string, columns []string, rows [][]any, returning []string) (pgx.Rows, error) {
	sql, args, err := buildInsert(table, columns, rows, nil, returning)
	if err != nil {
		return nil, err
	}
	out, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return out, nil
}

// Upsert inserts rows or updates the non-key columns of rows that collide on conflictKey.
func (s *RowStore) Upsert(ctx context.Context, table string, columns []string, rows [][]any, conflictKey []string, returning []string) (pgx.Rows, error) {
	if len(conflictKey) == 0 {
		return nil, errors.New("upsert requires a conflict key")
	}
	sql, args, err := buildInsert(table, columns, rows, conflictKey, returning)
	if err != nil {
		return nil, err
	}
	out, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", table, err)
	}
	return out, nil
}

// Update applies patch to the matching rows and reports how many changed.
func (s *RowStore) Update(ctx context.Context, table string, patch []Assignment, where []Condition) (int64, error) {
	sql, args, err := buildUpdate(table, patch, where)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the matching rows and reports how many were deleted.
func (s *RowStore) Delete(ctx context.Context, table string, where []Condition) (int64, error) {
	sql, args, err := buildDelete(table, where)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func ident(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func identList(names []string) (string, error) {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		q, err := ident(n)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, ", "), nil
}

func buildWhere(conds []Condition, start int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	var (
		clauses []string
		args    []any
		idx     = start
	)
	for _, c := range conds {
		col, err := ident(c.Column)
		if err != nil {
			return "", nil, err
		}
		switch c.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, idx))
		case OpIn:
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", col, idx))
		case OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", col, idx))
		case OpLte:
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", col, idx))
		case OpIsNull:
			null, _ := c.Value.(bool)
			if null {
				clauses = append(clauses, col+" IS NULL")
			} else {
				clauses = append(clauses, col+" IS NOT NULL")
			}
			continue
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", c.Op)
		}
		args = append(args, c.Value)
		idx++
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func buildSelect(table string, q Query) (string, []any, error) {
	tbl, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	cols := "*"
	if len(q.Columns) > 0 {
		if cols, err = identList(q.Columns); err != nil {
			return "", nil, err
		}
	}
	where, args, err := buildWhere(q.Where, 1)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(tbl)
	sb.WriteString(where)

	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			col, err := ident(o.Column)
			if err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, col+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}
	return sb.String(), args, nil
}

func buildInsert(table string, columns []string, rows [][]any, conflictKey []string, returning []string) (string, []any, error) {
	if len(columns) == 0 || len(rows) == 0 {
		return "", nil, errors.New("insert requires columns and at least one row")
	}
	tbl, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	cols, err := identList(columns)
	if err != nil {
		return "", nil, err
	}

	var (
		tuples []string
		args   []any
		idx    = 1
	)
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
		placeholders := make([]string, len(row))
		for j := range row {
			placeholders[j] = fmt.Sprintf("$%d", idx)
			idx++
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, row...)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(tbl)
	sb.WriteString(" (")
	sb.WriteString(cols)
	sb.WriteString(") VALUES ")
	sb.WriteString(strings.Join(tuples, ", "))

	if len(conflictKey) > 0 {
		key, err := identList(conflictKey)
		if err != nil {
			return "", nil, err
		}
		inKey := make(map[string]struct{}, len(conflictKey))
		for _, k := range conflictKey {
			inKey[k] = struct{}{}
		}
		var sets []string
		for _, c := range columns {
			if _, ok := inKey[c]; ok {
				continue
			}
			q, _ := ident(c)
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
		sb.WriteString(" ON CONFLICT (")
		sb.WriteString(key)
		if len(sets) == 0 {
			sb.WriteString(") DO NOTHING")
		} else {
			sb.WriteString(") DO UPDATE SET ")
			sb.WriteString(strings.Join(sets, ", "))
		}
	}

	if len(returning) > 0 {
		ret, err := identList(returning)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" RETURNING ")
		sb.WriteString(ret)
	}
	return sb.String(), args, nil
}

func buildUpdate(table string, patch []Assignment, where []Condition) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, errors.New("update requires at least one column")
	}
	if len(where) == 0 {
		return "", nil, errors.New("update requires a filter")
	}
	tbl, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch)+len(where))
	for i, a := range patch {
		col, err := ident(a.Column)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, a.Value)
	}
	clause, whereArgs, err := buildWhere(where, len(patch)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)
	return "UPDATE " + tbl + " SET " + strings.Join(sets, ", ") + clause, args, nil
}

func buildDelete(table string, where []Condition) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, errors.New("delete requires a filter")
	}
	tbl, err := ident(table)
	if err != nil {
		return "", nil, err
	}
	clause, args, err := buildWhere(where, 1)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + tbl + clause, args, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func first[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) (*T, error) {
	items, err := collect(rows, scan)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}
