/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite implements datastore.DataStore on SQLite. Each entity type
// gets its own table holding the record as JSON; queries are compiled to SQL
// by querysql.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"iter"
	"reflect"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/query/querysql"
	"github.com/suparena/entityview/registry"
)

// Open opens the database at path (":memory:" for a private in-memory
// database) with a single connection, WAL journaling and a busy timeout.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// DataStore stores records of type T in one table.
type DataStore[T any] struct {
	db      *sql.DB
	table   string
	keyFunc func(T) string
}

// Option configures a DataStore.
type Option[T any] func(*DataStore[T])

// WithTable overrides the table name, which defaults to the registered
// entity type name.
func WithTable[T any](name string) Option[T] {
	return func(d *DataStore[T]) { d.table = name }
}

// WithKeyFunc sets a custom function to extract keys from entities.
func WithKeyFunc[T any](f func(T) string) Option[T] {
	return func(d *DataStore[T]) { d.keyFunc = f }
}

// New creates the store for T on db and creates its table if needed.
func New[T any](ctx context.Context, db *sql.DB, opts ...Option[T]) (*DataStore[T], error) {
	d := &DataStore[T]{
		db:    db,
		table: registry.NameOf(reflect.TypeFor[T]()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate table %s: %w", d.table, err)
	}
	return d, nil
}

// Table returns the table name.
func (d *DataStore[T]) Table() string { return d.table }

func (d *DataStore[T]) migrate(ctx context.Context) error {
	if err := querysql.CheckTable(d.table); err != nil {
		return err
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS "%s" (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`, d.table)
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// GetOne retrieves an entity by key
func (d *DataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	var data []byte
	err := d.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM "%s" WHERE key = ?`, d.table), key).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError(d.table, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %q: %w", d.table, key, err)
	}
	return d.decode(data)
}

// Put inserts or replaces an entity
func (d *DataStore[T]) Put(ctx context.Context, entity T) error {
	key, err := d.Key(entity)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", d.table, err)
	}
	_, err = d.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO "%s" (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, d.table), key, string(data))
	if err != nil {
		return fmt.Errorf("failed to put %s %q: %w", d.table, key, err)
	}
	return nil
}

// Delete removes an entity by key
func (d *DataStore[T]) Delete(ctx context.Context, key string) error {
	res, err := d.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM "%s" WHERE key = ?`, d.table), key)
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", d.table, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", d.table, key, err)
	}
	if n == 0 {
		return errors.NewNotFoundError(d.table, key)
	}
	return nil
}

// Key extracts the key of entity
func (d *DataStore[T]) Key(entity T) (string, error) {
	if d.keyFunc != nil {
		if key := d.keyFunc(entity); strings.TrimSpace(key) != "" {
			return key, nil
		}
		return "", errors.NewValidationError("key", "unable to extract key from entity")
	}
	return datastore.KeyOf(&entity)
}

// Query runs expr as SQL. Matching rows are fetched when enumeration starts
// and decoded one at a time as the caller pulls, which leaves the connection
// free for writes while the caller iterates.
func (d *DataStore[T]) Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error] {
	if err := datastore.CheckQuery[T](expr, false); err != nil {
		return query.Failed[T](err)
	}
	return func(yield func(T, error) bool) {
		var zero T
		plan, err := querysql.Compile(d.table, expr)
		if err != nil {
			yield(zero, err)
			return
		}
		for data, err := range d.fetch(ctx, plan) {
			if err != nil {
				yield(zero, err)
				return
			}
			v, err := d.decode(data)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(*v, nil) {
				return
			}
		}
	}
}

// Rows runs expr as SQL and projects each record onto the selected members.
func (d *DataStore[T]) Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error] {
	if err := datastore.CheckQuery[T](expr, true); err != nil {
		return query.Failed[query.Row](err)
	}
	return func(yield func(query.Row, error) bool) {
		plan, err := querysql.Compile(d.table, expr)
		if err != nil {
			yield(nil, err)
			return
		}
		for data, err := range d.fetch(ctx, plan) {
			if err != nil {
				yield(nil, err)
				return
			}
			v, err := d.decode(data)
			if err != nil {
				yield(nil, err)
				return
			}
			row, err := query.ProjectRow(v, plan.Project)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (d *DataStore[T]) fetch(ctx context.Context, plan querysql.Plan) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		rows, err := d.db.QueryContext(ctx, plan.SQL, plan.Args...)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query %s: %w", d.table, err))
			return
		}
		var batch [][]byte
		for rows.Next() {
			var (
				key  string
				data []byte
			)
			if err := rows.Scan(&key, &data); err != nil {
				rows.Close()
				yield(nil, fmt.Errorf("failed to scan %s: %w", d.table, err))
				return
			}
			batch = append(batch, data)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			yield(nil, fmt.Errorf("error iterating %s: %w", d.table, err))
			return
		}

		for _, data := range batch {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(data, nil) {
				return
			}
		}
	}
}

func (d *DataStore[T]) decode(data []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s data: %w", d.table, err)
	}
	return v, nil
}
