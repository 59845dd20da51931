package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Documents are returned in insertion
// order; replacing a document keeps its position.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]memEntry
	indexes     []Index
	seq         uint64
}

type memEntry struct {
	seq uint64
	doc Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]memEntry)}
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.doc.Clone(), nil
}

func (m *MemoryStore) Find(_ context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for _, e := range m.ordered(collection) {
		if filter.Matches(e.doc) {
			out = append(out, e.doc.Clone())
		}
	}
	return PaginateSlice(out, opts), nil
}

func (m *MemoryStore) Count(_ context.Context, collection string, filter Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, e := range m.collections[collection] {
		if filter.Matches(e.doc) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Put(_ context.Context, collection string, doc Document) error {
	id := doc.ID()
	if id == "" {
		return ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.collections[collection]
	if coll == nil {
		coll = make(map[string]memEntry)
		m.collections[collection] = coll
	}
	for _, idx := range IndexesFor(m.indexes, collection) {
		for _, e := range coll {
			if idx.Conflicts(doc, e.doc) {
				return fmt.Errorf("%w: %s", ErrDuplicateKey, idx.Name)
			}
		}
	}

	e, ok := coll[id]
	if !ok {
		m.seq++
		e.seq = m.seq
	}
	e.doc = doc.Clone()
	coll[id] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) Aggregate(ctx context.Context, collection string, pipeline Pipeline) ([]Document, error) {
	return Evaluate(ctx, m, collection, pipeline)
}

// EnsureIndexes records the indexes. Existing documents are not checked.
func (m *MemoryStore) EnsureIndexes(_ context.Context, indexes []Index) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, idx := range indexes {
		replaced := false
		for i, cur := range m.indexes {
			if cur.Name == idx.Name && cur.Collection == idx.Collection {
				m.indexes[i] = idx
				replaced = true
			}
		}
		if !replaced {
			m.indexes = append(m.indexes, idx)
		}
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) ordered(collection string) []memEntry {
	coll := m.collections[collection]
	entries := make([]memEntry, 0, len(coll))
	for _, e := range coll {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries
}

var _ Store = (*MemoryStore)(nil)
