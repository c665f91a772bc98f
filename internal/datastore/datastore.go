// Package datastore is the table level data client used by the data access
// functions. Implementations: postgrest (hosted service, row level security
// through the user's access token) and gormstore (local database).
package datastore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get and by Update with a target when no row matched.
var ErrNotFound = errors.New("datastore: no rows")

// Client reads and writes rows of one table per call.
type Client interface {
	// Select decodes all matching rows into out, a pointer to a slice.
	Select(ctx context.Context, q Query, out any) error

	// Get decodes exactly one matching row into out, a pointer to a struct.
	Get(ctx context.Context, q Query, out any) error

	// Insert stores record, a pointer to a struct, and overwrites it with the stored row.
	Insert(ctx context.Context, table string, record any) error

	// Update sets values on all matching rows. A non nil out receives the updated row.
	Update(ctx context.Context, q Query, values map[string]any, out any) error

	// WithAccessToken returns a client acting as the owner of the token.
	WithAccessToken(token string) Client
}

// Op is a filter operator.
type Op string

// Filter operators.
const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Filter restricts a query to rows where Column Op Value holds.
// Value is a slice for OpIn.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Order sorts the result.
type Order struct {
	Column    string
	Ascending bool
}

// Embed loads a related row into a field of the result.
type Embed struct {
	Alias string // json key, e.g. "destination"
	Table string // related table, e.g. "destinations"
	Field string // struct field preloaded by gorm, e.g. "Destination"
}

// Query selects rows of one table.
type Query struct {
	Table   string
	Filters []Filter
	Order   *Order
	Limit   int
	Embeds  []Embed
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Op: OpEq, Value: value})

	return q
}

// In adds a membership filter.
func (q Query) In(column string, values []string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Op: OpIn, Value: values})

	return q
}

// OrderBy sets the sort column.
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = &Order{Column: column, Ascending: ascending}

	return q
}

// WithLimit caps the number of rows.
func (q Query) WithLimit(n int) Query {
	q.Limit = n

	return q
}

// Embed adds a related row to every result.
func (q Query) Embed(alias, table, field string) Query {
	q.Embeds = append(append([]Embed(nil), q.Embeds...), Embed{Alias: alias, Table: table, Field: field})

	return q
}

// Error is a failed request of the data service.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Hint       string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("datastore: HTTP %d", e.StatusCode)

	if e.Code != "" {
		msg += " " + e.Code
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	return msg
}
