// Package sqlstore implements store.Store on database/sql, for SQLite
// (modernc.org/sqlite) and PostgreSQL (pgx stdlib).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"corkboard-cli/internal/store"

	"github.com/google/uuid"
)

// sqliteTime is fixed-width so text timestamps sort chronologically.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

type dialect struct {
	name string
	// textTime stores timestamps as sqliteTime strings instead of native values.
	textTime bool
	// numbered uses $1, $2, ... placeholders instead of ?.
	numbered bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", textTime: true}
	postgresDialect = dialect{name: "postgres", numbered: true}
)

type columnKind int

const (
	kindText columnKind = iota
	kindInt
	kindTime
)

func kindOf(col string) columnKind {
	switch col {
	case "position", "uses", "max_uses":
		return kindInt
	case "created_at", "joined_at", "expires_at":
		return kindTime
	default:
		return kindText
	}
}

// DB is a store.Store backed by a SQL database.
type DB struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	newID   func() string
}

var _ store.Store = (*DB)(nil)

func newDB(db *sql.DB, d dialect) *DB {
	return &DB{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Driver is "sqlite" or "postgres".
func (d *DB) Driver() string { return d.dialect.name }

// SQL exposes the underlying handle (doctor, tests).
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Open opens a backend by driver name.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return OpenSQLite(ctx, dsn)
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

type query struct {
	d    dialect
	sb   strings.Builder
	args []any
}

func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	if q.d.numbered {
		return "$" + strconv.Itoa(len(q.args))
	}
	return "?"
}

func (d *DB) where(q *query, f store.Filter) error {
	for i, c := range f {
		if i == 0 {
			q.sb.WriteString(" WHERE ")
		} else {
			q.sb.WriteString(" AND ")
		}
		q.sb.WriteString(c.Column)
		switch c.Op {
		case store.OpEq:
			v, err := d.arg(c.Column, c.Value)
			if err != nil {
				return err
			}
			if v == nil {
				q.sb.WriteString(" IS NULL")
				continue
			}
			q.sb.WriteString(" = " + q.bind(v))
		case store.OpIn:
			ph := make([]string, 0, len(c.Values))
			for _, raw := range c.Values {
				v, err := d.arg(c.Column, raw)
				if err != nil {
					return err
				}
				ph = append(ph, q.bind(v))
			}
			q.sb.WriteString(" IN (" + strings.Join(ph, ", ") + ")")
		default:
			return fmt.Errorf("%w: op %q", store.ErrInvalidFilter, c.Op)
		}
	}
	return nil
}

// arg converts a row or filter value into the driver's representation.
func (d *DB) arg(col string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kindOf(col) {
	case kindInt:
		n, err := store.IntValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		return int64(n), nil
	case kindTime:
		ts, err := store.TimeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		if ts.IsZero() {
			return nil, nil
		}
		if d.dialect.textTime {
			return ts.UTC().Format(sqliteTime), nil
		}
		return ts.UTC(), nil
	default:
		return store.StringValue(v), nil
	}
}

// value converts a scanned value back into the row representation.
func value(col string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kindOf(col) {
	case kindInt:
		return store.IntValue(v)
	case kindTime:
		ts, err := store.TimeValue(v)
		if err != nil || ts.IsZero() {
			return nil, err
		}
		return ts, nil
	default:
		return store.StringValue(v), nil
	}
}

func scanRows(rows *sql.Rows, cols []string) ([]store.Row, error) {
	var out []store.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(store.Row, len(cols))
		for i, col := range cols {
			v, err := value(col, vals[i])
			if err != nil {
				return nil, err
			}
			r[col] = v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) Select(ctx context.Context, t store.Table, f store.Filter, order ...store.Order) ([]store.Row, error) {
	if err := f.Validate(t); err != nil {
		return nil, err
	}
	if err := store.ValidateOrder(t, order); err != nil {
		return nil, err
	}
	if f.Empty() {
		return nil, nil
	}
	cols := t.Columns()
	q := &query{d: d.dialect}
	q.sb.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM " + string(t))
	if err := d.where(q, f); err != nil {
		return nil, err
	}
	q.sb.WriteString(orderBy(order))

	rows, err := d.db.QueryContext(ctx, q.sb.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	defer rows.Close()
	out, err := scanRows(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	return out, nil
}

func orderBy(order []store.Order) string {
	parts := make([]string, 0, len(order)+1)
	hasID := false
	for _, o := range order {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, o.Column+" "+dir)
		hasID = hasID || o.Column == "id"
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (d *DB) Insert(ctx context.Context, t store.Table, row store.Row) (store.Row, error) {
	if err := store.ValidateRow(t, row); err != nil {
		return nil, err
	}
	r := row.Clone()
	if r.ID() == "" {
		r["id"] = d.newID()
	}
	if col := t.TimestampColumn(); r[col] == nil {
		r[col] = d.now()
	} else if ts, err := store.TimeValue(r[col]); err != nil || ts.IsZero() {
		r[col] = d.now()
	}

	keys := r.Keys()
	q := &query{d: d.dialect}
	ph := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := d.arg(k, r[k])
		if err != nil {
			return nil, err
		}
		ph = append(ph, q.bind(v))
	}
	cols := t.Columns()
	q.sb.WriteString("INSERT INTO " + string(t) + " (" + strings.Join(keys, ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")")
	q.sb.WriteString(" RETURNING " + strings.Join(cols, ", "))

	rows, err := d.db.QueryContext(ctx, q.sb.String(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t, err)
	}
	defer rows.Close()
	out, err := scanRows(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("insert %s: expected 1 row, got %d", t, len(out))
	}
	return out[0], nil
}

func (d *DB) Update(ctx context.Context, t store.Table, f store.Filter, patch store.Row) error {
	if err := f.Validate(t); err != nil {
		return err
	}
	if len(f) == 0 {
		return fmt.Errorf("%w: update %s without a filter", store.ErrInvalidFilter, t)
	}
	if err := store.ValidateRow(t, patch); err != nil {
		return err
	}
	if len(patch) == 0 || f.Empty() {
		return nil
	}
	if _, ok := patch["id"]; ok {
		return fmt.Errorf("%w: id cannot be updated", store.ErrUnknownColumn)
	}
	q := &query{d: d.dialect}
	q.sb.WriteString("UPDATE " + string(t) + " SET ")
	for i, k := range patch.Keys() {
		v, err := d.arg(k, patch[k])
		if err != nil {
			return err
		}
		if i > 0 {
			q.sb.WriteString(", ")
		}
		q.sb.WriteString(k + " = " + q.bind(v))
	}
	if err := d.where(q, f); err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, q.sb.String(), q.args...); err != nil {
		return fmt.Errorf("update %s: %w", t, err)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, t store.Table, f store.Filter) error {
	if err := f.Validate(t); err != nil {
		return err
	}
	if len(f) == 0 {
		return fmt.Errorf("%w: delete from %s without a filter", store.ErrInvalidFilter, t)
	}
	if f.Empty() {
		return nil
	}
	q := &query{d: d.dialect}
	q.sb.WriteString("DELETE FROM " + string(t))
	if err := d.where(q, f); err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, q.sb.String(), q.args...); err != nil {
		return fmt.Errorf("delete from %s: %w", t, err)
	}
	return nil
}
