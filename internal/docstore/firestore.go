package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ahmetcoskunkizilkaya/eventcenter/internal/stream"
)

// Firestore is the Store backed by Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func notFound(collection, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return err
}

func toFirestoreValue(v any) any {
	switch t := v.(type) {
	case arrayUnion:
		return firestore.ArrayUnion(normalize(t.elems).([]any)...)
	case arrayRemove:
		return firestore.ArrayRemove(normalize(t.elems).([]any)...)
	}
	return normalize(v)
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, len(updates))
	for i, u := range updates {
		out[i] = firestore.Update{Path: u.Path, Value: toFirestoreValue(u.Value)}
	}
	return out
}

func (f *Firestore) query(collection string, q Query) firestore.Query {
	fq := f.client.Collection(collection).Query
	for _, flt := range q.Filters {
		fq = fq.Where(flt.Path, string(flt.Op), normalize(flt.Value))
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	return fq
}

func snapshotDocs(snaps []*firestore.DocumentSnapshot) []Document {
	out := make([]Document, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, Document(s.Data()))
	}
	return out
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(collection, id, err)
	}
	return Document(snap.Data()), nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, doc Document) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, map[string]any(normalizeDoc(doc)))
	return err
}

func (f *Firestore) Update(ctx context.Context, collection, id string, updates ...Update) error {
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates))
	if err != nil {
		return notFound(collection, id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	_, err := f.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

func (f *Firestore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	snaps, err := f.query(collection, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotDocs(snaps), nil
}

func (f *Firestore) Subscribe(ctx context.Context, collection string, q Query) *stream.Subscription[[]Document] {
	return stream.Run(ctx, func(ctx context.Context, emit stream.Emit[[]Document]) error {
		it := f.query(collection, q).Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || ctx.Err() != nil {
					return nil
				}
				return err
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				return err
			}
			if !emit(snapshotDocs(docs)) {
				return nil
			}
		}
	})
}

type firestoreTx struct {
	f  *Firestore
	tx *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (Document, error) {
	snap, err := t.tx.Get(t.f.client.Collection(collection).Doc(id))
	if err != nil {
		return nil, notFound(collection, id, err)
	}
	return Document(snap.Data()), nil
}

func (t *firestoreTx) Query(collection string, q Query) ([]Document, error) {
	snaps, err := t.tx.Documents(t.f.query(collection, q)).GetAll()
	if err != nil {
		return nil, err
	}
	return snapshotDocs(snaps), nil
}

func (t *firestoreTx) Set(collection, id string, doc Document) error {
	return t.tx.Set(t.f.client.Collection(collection).Doc(id), map[string]any(normalizeDoc(doc)))
}

func (t *firestoreTx) Update(collection, id string, updates ...Update) error {
	return t.tx.Update(t.f.client.Collection(collection).Doc(id), toFirestoreUpdates(updates))
}

func (t *firestoreTx) Delete(collection, id string) error {
	return t.tx.Delete(t.f.client.Collection(collection).Doc(id))
}

func (f *Firestore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{f: f, tx: tx})
	})
}

func (f *Firestore) NewID(collection string) string {
	return f.client.Collection(collection).NewDoc().ID
}

// Ping reads a sentinel document; a missing document still proves the
// backend answered.
func (f *Firestore) Ping(ctx context.Context) error {
	_, err := f.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
