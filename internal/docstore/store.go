// Package docstore is the port to the authoritative remote document store.
// Records are plain field maps; callers own the mapping to their entities.
package docstore

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

var ErrNotFound = errors.New("document not found")

// Document is one record. Numbers come back as int64 or float64 and lists as
// []any regardless of what was written.
type Document map[string]any

// ID returns the "id" field every record carries.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

type Op string

const (
	OpEqual        Op = "=="
	OpGreaterEqual Op = ">="
	OpLess         Op = "<"
	OpArrayContain Op = "array-contains"
)

type Filter struct {
	Path  string
	Op    Op
	Value any
}

// Query is a conjunction of filters with an optional single-field order.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
}

func (q Query) Where(path string, op Op, value any) Query {
	q.Filters = append(append([]Filter{}, q.Filters...), Filter{Path: path, Op: op, Value: value})
	return q
}

func (q Query) Order(path string, desc bool) Query {
	q.OrderBy = path
	q.Desc = desc
	return q
}

// Update sets one field. Value may be an ArrayUnion or ArrayRemove transform.
type Update struct {
	Path  string
	Value any
}

type arrayUnion struct{ elems []any }
type arrayRemove struct{ elems []any }

// ArrayUnion adds elems to a list field, skipping those already present.
func ArrayUnion(elems ...any) any { return arrayUnion{elems: elems} }

// ArrayRemove removes every occurrence of elems from a list field.
func ArrayRemove(elems ...any) any { return arrayRemove{elems: elems} }

// Tx is the view of the store inside a transaction. All reads must happen
// before the first write.
type Tx interface {
	Get(collection, id string) (Document, error)
	Query(collection string, q Query) ([]Document, error)
	Set(collection, id string, doc Document) error
	Update(collection, id string, updates ...Update) error
	Delete(collection, id string) error
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document) error
	// Update fails with ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, updates ...Update) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe delivers the full result of q now and again after every
	// change that may affect it, until canceled.
	Subscribe(ctx context.Context, collection string, q Query) *stream.Subscription[[]Document]
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	NewID(collection string) string
	Ping(ctx context.Context) error
	Close() error
}
