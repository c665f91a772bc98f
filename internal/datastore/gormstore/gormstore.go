// Package gormstore implements datastore.Client on a gorm database.
//
// Rows are read into the model type of the target, so Select and Get need
// pointers to the models of the queried table. Ownership is not enforced
// here, the data access functions filter by user id.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/traveloop/traveloop/internal/datastore"
)

// Store is a datastore.Client on gorm.
type Store struct {
	db *gorm.DB
}

// New creates a store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithAccessToken implements datastore.Client. The local database has no row level security.
func (s *Store) WithAccessToken(_ string) datastore.Client {
	return s
}

// Select implements datastore.Client.
func (s *Store) Select(ctx context.Context, q datastore.Query, out any) error {
	tx := apply(s.db.WithContext(ctx), q)

	if q.Order != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: q.Order.Column},
			Desc:   !q.Order.Ascending,
		})
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	if err := tx.Find(out).Error; err != nil {
		return fmt.Errorf("gormstore.Select %s: %w", q.Table, err)
	}

	return nil
}

// Get implements datastore.Client.
func (s *Store) Get(ctx context.Context, q datastore.Query, out any) error {
	if err := apply(s.db.WithContext(ctx), q).Take(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("gormstore.Get %s: %w", q.Table, datastore.ErrNotFound)
		}

		return fmt.Errorf("gormstore.Get %s: %w", q.Table, err)
	}

	return nil
}

// Insert implements datastore.Client.
func (s *Store) Insert(ctx context.Context, table string, record any) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("gormstore.Insert %s: %w", table, err)
	}

	return nil
}

// Update implements datastore.Client. Filters should not name updated
// columns when out is set, out is read back with the same filters.
func (s *Store) Update(ctx context.Context, q datastore.Query, values map[string]any, out any) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("gormstore.Update %s: %w", q.Table, gorm.ErrMissingWhereClause)
	}

	set, err := columns(values)
	if err != nil {
		return fmt.Errorf("gormstore.Update %s: %w", q.Table, err)
	}

	if out != nil && hasField(out, "UpdatedAt") {
		if _, ok := set["updated_at"]; !ok {
			set["updated_at"] = time.Now()
		}
	}

	res := filters(s.db.WithContext(ctx).Table(q.Table), q.Filters).Updates(set)
	if res.Error != nil {
		return fmt.Errorf("gormstore.Update %s: %w", q.Table, res.Error)
	}

	if out == nil {
		return nil
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("gormstore.Update %s: %w", q.Table, datastore.ErrNotFound)
	}

	return s.Get(ctx, q, out)
}

// apply adds filters and preloads.
func apply(tx *gorm.DB, q datastore.Query) *gorm.DB {
	tx = filters(tx, q.Filters)

	for _, e := range q.Embeds {
		tx = tx.Preload(e.Field)
	}

	return tx
}

func filters(tx *gorm.DB, fs []datastore.Filter) *gorm.DB {
	for _, f := range fs {
		col := clause.Column{Name: f.Column}

		switch f.Op {
		case datastore.OpIn:
			tx = tx.Where(clause.IN{Column: col, Values: toSlice(f.Value)})
		default:
			tx = tx.Where(clause.Eq{Column: col, Value: f.Value})
		}
	}

	return tx
}

func toSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out
}

// columns encodes composite values as JSON, the format of the serializer:json columns.
func columns(values map[string]any) (map[string]any, error) {
	set := make(map[string]any, len(values)+1)

	for k, v := range values {
		switch v.(type) {
		case nil, time.Time, *time.Time, []byte:
			set[k] = v

			continue
		}

		switch reflect.Indirect(reflect.ValueOf(v)).Kind() { //nolint:exhaustive
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode column %s: %w", k, err)
			}

			set[k] = string(data)
		default:
			set[k] = v
		}
	}

	return set, nil
}

func hasField(out any, name string) bool {
	rv := reflect.Indirect(reflect.ValueOf(out))

	return rv.Kind() == reflect.Struct && rv.FieldByName(name).IsValid()
}

var _ datastore.Client = (*Store)(nil)
