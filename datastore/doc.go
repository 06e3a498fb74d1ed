/*
Package datastore defines the persistence layer behind entityview sessions.

The main interface is DataStore[T], which stores the records of one concrete
type T and answers deferred queries over them:

	type DataStore[T any] interface {
	    GetOne(ctx context.Context, key string) (*T, error)
	    Put(ctx context.Context, entity T) error
	    Delete(ctx context.Context, key string) error
	    Key(entity T) (string, error)
	    Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error]
	    Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error]
	}

Implementations:
  - memory: map-backed store, also used as a test double
  - sqlite: one JSON-column table per type, queries compiled to SQL
  - ddb: DynamoDB single-table design with filter push-down
  - instrument: Prometheus metrics around any DataStore[T]

GetOne and Delete report errors.ErrNotFound for missing keys.
*/
package datastore
