package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

var ErrReadAfterWrite = errors.New("transaction reads must precede writes")

// Memory is an in-process Store. It backs local development and tests, and
// behaves like the remote store for everything callers rely on: snapshot
// delivery on change, atomic list transforms and serializable transactions.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	listeners   map[int]*listener
	nextID      int

	// failNext, when set, makes the next write to the named collection fail.
	failNext map[string]error
}

type listener struct {
	collection string
	signal     chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Document),
		listeners:   make(map[int]*listener),
		failNext:    make(map[string]error),
	}
}

// FailNextWrite injects err into the next write against collection.
func (m *Memory) FailNextWrite(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[collection] = err
}

func (m *Memory) injected(collection string) error {
	if err, ok := m.failNext[collection]; ok {
		delete(m.failNext, collection)
		return err
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.get(collection, id)
}

func (m *Memory) get(collection, id string) (Document, error) {
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return cloneDoc(doc), nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.injected(collection); err != nil {
		m.mu.Unlock()
		return err
	}
	m.set(collection, id, doc)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) set(collection, id string, doc Document) {
	c, ok := m.collections[collection]
	if !ok {
		c = make(map[string]Document)
		m.collections[collection] = c
	}
	c[id] = normalizeDoc(doc)
}

func (m *Memory) Update(ctx context.Context, collection, id string, updates ...Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.injected(collection); err != nil {
		m.mu.Unlock()
		return err
	}
	err := m.update(collection, id, updates)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notify(collection)
	return nil
}

func (m *Memory) update(collection, id string, updates []Update) error {
	doc, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for _, u := range updates {
		current, _ := lookup(doc, u.Path)
		setPath(doc, u.Path, applyTransform(current, u.Value))
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.injected(collection); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.collections[collection], id)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.query(collection, q), nil
}

func (m *Memory) query(collection string, q Query) []Document {
	out := make([]Document, 0)
next:
	for _, doc := range m.collections[collection] {
		for _, f := range q.Filters {
			if !f.matches(doc) {
				continue next
			}
		}
		out = append(out, cloneDoc(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy != "" {
			a, _ := lookup(out[i], q.OrderBy)
			b, _ := lookup(out[j], q.OrderBy)
			if c, ok := compare(a, b); ok && c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Subscribe emits the current result immediately and a fresh result after
// each write to the collection. Bursts of writes may coalesce into one
// snapshot.
func (m *Memory) Subscribe(ctx context.Context, collection string, q Query) *stream.Subscription[[]Document] {
	return stream.Run(ctx, func(ctx context.Context, emit stream.Emit[[]Document]) error {
		l := &listener{collection: collection, signal: make(chan struct{}, 1)}
		m.mu.Lock()
		m.nextID++
		key := m.nextID
		m.listeners[key] = l
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			delete(m.listeners, key)
			m.mu.Unlock()
		}()

		for {
			snap, err := m.Query(ctx, collection, q)
			if err != nil {
				return err
			}
			if !emit(snap) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			case <-l.signal:
			}
		}
	})
}

func (m *Memory) notify(collections ...string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.listeners {
		for _, c := range collections {
			if l.collection != c {
				continue
			}
			select {
			case l.signal <- struct{}{}:
			default:
			}
			break
		}
	}
}

// Listeners reports how many subscriptions are registered.
func (m *Memory) Listeners() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

type memTxOp struct {
	kind       string
	collection string
	id         string
	doc        Document
	updates    []Update
}

type memTx struct {
	m   *Memory
	ops []memTxOp
}

func (t *memTx) Get(collection, id string) (Document, error) {
	if len(t.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return t.m.get(collection, id)
}

func (t *memTx) Query(collection string, q Query) ([]Document, error) {
	if len(t.ops) > 0 {
		return nil, ErrReadAfterWrite
	}
	return t.m.query(collection, q), nil
}

func (t *memTx) Set(collection, id string, doc Document) error {
	t.ops = append(t.ops, memTxOp{kind: "set", collection: collection, id: id, doc: normalizeDoc(doc)})
	return nil
}

func (t *memTx) Update(collection, id string, updates ...Update) error {
	if _, ok := t.m.collections[collection][id]; !ok && !t.setInTx(collection, id) {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	t.ops = append(t.ops, memTxOp{kind: "update", collection: collection, id: id, updates: updates})
	return nil
}

func (t *memTx) setInTx(collection, id string) bool {
	for _, op := range t.ops {
		if op.kind == "set" && op.collection == collection && op.id == id {
			return true
		}
	}
	return false
}

func (t *memTx) Delete(collection, id string) error {
	t.ops = append(t.ops, memTxOp{kind: "delete", collection: collection, id: id})
	return nil
}

// RunTransaction runs fn while holding the store lock and applies its writes
// only when fn returns nil.
func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	tx := &memTx{m: m}
	if err := fn(ctx, tx); err != nil {
		m.mu.Unlock()
		return err
	}
	touched := make([]string, 0, len(tx.ops))
	for _, op := range tx.ops {
		if err := m.injected(op.collection); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	for _, op := range tx.ops {
		switch op.kind {
		case "set":
			m.set(op.collection, op.id, op.doc)
		case "update":
			if err := m.update(op.collection, op.id, op.updates); err != nil {
				m.mu.Unlock()
				return err
			}
		case "delete":
			delete(m.collections[op.collection], op.id)
		}
		touched = append(touched, op.collection)
	}
	m.mu.Unlock()
	m.notify(touched...)
	return nil
}

func (m *Memory) NewID(string) string { return uuid.NewString() }

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }
