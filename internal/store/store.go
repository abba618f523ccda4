// Package store defines the ordered-record store the client persists to.
//
// Store is select / insert / update / delete on a named table with eq and in
// filters. The SQL backends, the Redis read cache and the HTTP client all
// implement it.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type Table string

const (
	Boards  Table = "boards"
	Lists   Table = "lists"
	Cards   Table = "cards"
	Members Table = "board_members"
	Invites Table = "board_invites"
)

// Tables returns every known table, in dependency order (parents first).
func Tables() []Table {
	return []Table{Boards, Lists, Cards, Members, Invites}
}

var columns = map[Table][]string{
	Boards:  {"id", "user_id", "title", "created_at"},
	Lists:   {"id", "board_id", "title", "position", "created_at"},
	Cards:   {"id", "list_id", "title", "description", "position", "created_at"},
	Members: {"id", "board_id", "user_id", "email", "role", "joined_at"},
	Invites: {"id", "board_id", "invite_code", "created_by", "uses", "max_uses", "expires_at", "created_at"},
}

// Columns returns the table's columns in schema order.
func (t Table) Columns() []string {
	return append([]string(nil), columns[t]...)
}

func (t Table) Valid() bool {
	_, ok := columns[t]
	return ok
}

func (t Table) HasColumn(name string) bool {
	for _, c := range columns[t] {
		if c == name {
			return true
		}
	}
	return false
}

// TimestampColumn is the column the store fills on insert.
func (t Table) TimestampColumn() string {
	if t == Members {
		return "joined_at"
	}
	return "created_at"
}

// Dependents returns the tables whose rows are deleted along with rows of t.
func (t Table) Dependents() []Table {
	switch t {
	case Boards:
		return []Table{Lists, Cards, Members, Invites}
	case Lists:
		return []Table{Cards}
	default:
		return nil
	}
}

// ParseTable validates a table name coming from outside (CLI, HTTP).
func ParseTable(name string) (Table, error) {
	t := Table(name)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return t, nil
}

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Row is one record keyed by column name.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the row's column names sorted, for deterministic SQL.
func (r Row) Keys() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ID returns the row's id as a string, or "".
func (r Row) ID() string {
	s, _ := r["id"].(string)
	return s
}

type Op string

const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Cond is one filter condition. Eq uses Value, In uses Values.
type Cond struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value,omitempty"`
	Values []any  `json:"values,omitempty"`
}

func Eq(column string, value any) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

func In[T any](column string, values ...T) Cond {
	vs := make([]any, 0, len(values))
	for _, v := range values {
		vs = append(vs, v)
	}
	return Cond{Column: column, Op: OpIn, Values: vs}
}

// Filter is a conjunction of conditions. An empty filter matches every row.
type Filter []Cond

func Where(conds ...Cond) Filter { return Filter(conds) }

// ByID matches a single row by primary key.
func ByID(id string) Filter { return Where(Eq("id", id)) }

// Validate checks every column against the table's whitelist.
func (f Filter) Validate(t Table) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	for _, c := range f {
		if !t.HasColumn(c.Column) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, c.Column)
		}
		switch c.Op {
		case OpEq:
		case OpIn:
		default:
			return fmt.Errorf("%w: op %q", ErrInvalidFilter, c.Op)
		}
	}
	return nil
}

// Empty reports whether some In condition has no values, which matches nothing.
func (f Filter) Empty() bool {
	for _, c := range f {
		if c.Op == OpIn && len(c.Values) == 0 {
			return true
		}
	}
	return false
}

type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// ValidateOrder checks order columns against the table's whitelist.
func ValidateOrder(t Table, order []Order) error {
	for _, o := range order {
		if !t.HasColumn(o.Column) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, o.Column)
		}
	}
	return nil
}

// ValidateRow checks every key of r against the table's whitelist.
func ValidateRow(t Table, r Row) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	for k := range r {
		if !t.HasColumn(k) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t, k)
		}
	}
	return nil
}

// Store is the persisted ordered-record store.
//
// Insert assigns id (when missing) and the creation timestamp and returns the
// stored row. Update and Delete affect every row matching filter; matching no
// rows is not an error; an empty filter is rejected for both.
type Store interface {
	Select(ctx context.Context, table Table, filter Filter, order ...Order) ([]Row, error)
	Insert(ctx context.Context, table Table, row Row) (Row, error)
	Update(ctx context.Context, table Table, filter Filter, patch Row) error
	Delete(ctx context.Context, table Table, filter Filter) error
}
