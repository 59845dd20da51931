// Package bolt stores documents in a bbolt file, one bucket per collection.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rpggio/fleetd/internal/docstore"
	bolt "go.etcd.io/bbolt"
)

var (
	// Per-collection sub-buckets
	bucketDocs = []byte("docs")
	bucketIDs  = []byte("ids")

	bucketIndexes = []byte("_indexes")
)

// Store implements docstore.Store using BoltDB. Each collection bucket keeps
// documents keyed by insertion sequence plus an id to sequence map.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file at path
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketIndexes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	var doc docstore.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		docs, ids := collectionBuckets(tx, collection)
		if docs == nil {
			return docstore.ErrNotFound
		}
		seq := ids.Get([]byte(id))
		if seq == nil {
			return docstore.ErrNotFound
		}
		var err error
		doc, err = docstore.Unmarshal(docs.Get(seq))
		return err
	})
	return doc, err
}

func (s *Store) Find(_ context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	var out []docstore.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		docs, _ := collectionBuckets(tx, collection)
		if docs == nil {
			return nil
		}
		return docs.ForEach(func(_, v []byte) error {
			doc, err := docstore.Unmarshal(v)
			if err != nil {
				return err
			}
			if filter.Matches(doc) {
				out = append(out, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	return docstore.PaginateSlice(out, opts), nil
}

func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	docs, err := s.Find(ctx, collection, filter, docstore.FindOptions{})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *Store) Put(_ context.Context, collection string, doc docstore.Document) error {
	id := doc.ID()
	if id == "" {
		return docstore.ErrMissingID
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	// compare against the stored form so numbers normalize the same way
	stored, err := docstore.Unmarshal(data)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", collection, err)
		}
		docs, err := root.CreateBucketIfNotExists(bucketDocs)
		if err != nil {
			return err
		}
		ids, err := root.CreateBucketIfNotExists(bucketIDs)
		if err != nil {
			return err
		}

		indexes, err := loadIndexes(tx, collection)
		if err != nil {
			return err
		}
		if len(indexes) > 0 {
			err := docs.ForEach(func(_, v []byte) error {
				existing, err := docstore.Unmarshal(v)
				if err != nil {
					return err
				}
				for _, idx := range indexes {
					if idx.Conflicts(stored, existing) {
						return fmt.Errorf("%w: %s", docstore.ErrDuplicateKey, idx.Name)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		seq := ids.Get([]byte(id))
		if seq == nil {
			n, err := root.NextSequence()
			if err != nil {
				return err
			}
			seq = itob(n)
			if err := ids.Put([]byte(id), seq); err != nil {
				return err
			}
		}
		return docs.Put(seq, data)
	})
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docs, ids := collectionBuckets(tx, collection)
		if docs == nil {
			return docstore.ErrNotFound
		}
		seq := ids.Get([]byte(id))
		if seq == nil {
			return docstore.ErrNotFound
		}
		// seq aliases page memory that the deletes below may reuse
		key := append([]byte(nil), seq...)
		if err := docs.Delete(key); err != nil {
			return err
		}
		return ids.Delete([]byte(id))
	})
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline docstore.Pipeline) ([]docstore.Document, error) {
	return docstore.Evaluate(ctx, s, collection, pipeline)
}

// EnsureIndexes persists index definitions. Uniqueness is enforced on Put.
func (s *Store) EnsureIndexes(_ context.Context, indexes []docstore.Index) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIndexes)
		for _, idx := range indexes {
			data, err := json.Marshal(idx)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(idx.Collection+"/"+idx.Name), data); err != nil {
				return fmt.Errorf("failed to store index %s: %w", idx.Name, err)
			}
		}
		return nil
	})
}

func collectionBuckets(tx *bolt.Tx, collection string) (docs, ids *bolt.Bucket) {
	root := tx.Bucket([]byte(collection))
	if root == nil {
		return nil, nil
	}
	docs, ids = root.Bucket(bucketDocs), root.Bucket(bucketIDs)
	if docs == nil || ids == nil {
		return nil, nil
	}
	return docs, ids
}

func loadIndexes(tx *bolt.Tx, collection string) ([]docstore.Index, error) {
	var out []docstore.Index
	c := tx.Bucket(bucketIndexes).Cursor()
	prefix := []byte(collection + "/")
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		var idx docstore.Index
		if err := json.Unmarshal(v, &idx); err != nil {
			return nil, fmt.Errorf("failed to decode index %s: %w", k, err)
		}
		if idx.Unique {
			out = append(out, idx)
		}
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

var _ docstore.Store = (*Store)(nil)
