package docstore

import "context"

// Store is a document store client.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// Put inserts or fully replaces the document with the same id.
	Put(ctx context.Context, collection string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	Aggregate(ctx context.Context, collection string, pipeline Pipeline) ([]Document, error)
	EnsureIndexes(ctx context.Context, indexes []Index) error
	Close() error
}

// FindOptions paginates a Find. A zero Limit means no limit.
type FindOptions struct {
	Skip  int64
	Limit int64
}

// Index declares a secondary index over top-level fields.
type Index struct {
	Name       string
	Collection string
	Fields     []string
	Unique     bool
}

// Conflicts reports whether a and b collide on a unique index: the ids
// differ and every indexed field is present and equal in both.
func (idx Index) Conflicts(a, b Document) bool {
	if !idx.Unique || a.ID() == b.ID() {
		return false
	}
	for _, field := range idx.Fields {
		av, aok := a.Lookup(field)
		bv, bok := b.Lookup(field)
		if !aok || !bok {
			return false
		}
		ak, aok := scalarKey(av)
		bk, bok := scalarKey(bv)
		if !aok || !bok || ak != bk {
			return false
		}
	}
	return true
}

// IndexesFor returns the indexes declared on collection.
func IndexesFor(indexes []Index, collection string) []Index {
	var out []Index
	for _, idx := range indexes {
		if idx.Collection == collection {
			out = append(out, idx)
		}
	}
	return out
}
