// Package mongo runs the document store on MongoDB, translating pipelines
// into native aggregation stages. Document ids are stored as _id.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/fleetd/internal/docstore"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "fleetd"

// Store implements docstore.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and verifies the connection.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if database == "" {
		database = DefaultDatabase
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return fromRaw(raw)
}

func (s *Store) Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	cur, err := s.db.Collection(collection).Find(ctx, translateFilter(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	return drain(ctx, cur)
}

func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, translateFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *Store) Put(ctx context.Context, collection string, doc docstore.Document) error {
	id := doc.ID()
	if id == "" {
		return docstore.ErrMissingID
	}
	body := toBSON(doc)
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}}, body, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
		}
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline docstore.Pipeline) ([]docstore.Document, error) {
	stages, err := translatePipeline(pipeline)
	if err != nil {
		return nil, err
	}
	cur, err := s.db.Collection(collection).Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", collection, err)
	}
	return drain(ctx, cur)
}

func (s *Store) EnsureIndexes(ctx context.Context, indexes []docstore.Index) error {
	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.Collection).Indexes().CreateOne(ctx, indexModel(idx)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("creating index %s: %w", idx.Name, docstore.ErrDuplicateKey)
			}
			return fmt.Errorf("creating index %s: %w", idx.Name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// indexModel builds the index. Unique indexes only cover documents that
// carry every field, matching the other backends.
func indexModel(idx docstore.Index) mongo.IndexModel {
	keys := bson.D{}
	exists := bson.D{}
	for _, f := range idx.Fields {
		keys = append(keys, bson.E{Key: fieldPath(f), Value: 1})
		exists = append(exists, bson.E{Key: fieldPath(f), Value: bson.D{{Key: "$exists", Value: true}}})
	}
	opts := options.Index().SetName(idx.Name)
	if idx.Unique {
		opts.SetUnique(true).SetPartialFilterExpression(exists)
	}
	return mongo.IndexModel{Keys: keys, Options: opts}
}

func translatePipeline(p docstore.Pipeline) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(p))
	for _, st := range p {
		switch s := st.(type) {
		case docstore.Match:
			out = append(out, bson.D{{Key: "$match", Value: translateFilter(s.Filter)}})
		case docstore.Lookup:
			out = append(out, bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: s.From},
				{Key: "localField", Value: fieldPath(s.LocalField)},
				{Key: "foreignField", Value: fieldPath(s.ForeignField)},
				{Key: "as", Value: s.As},
			}}})
		case docstore.Unwind:
			out = append(out, bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + fieldPath(s.Path)},
				{Key: "preserveNullAndEmptyArrays", Value: s.PreserveMissing},
			}}})
		case docstore.Project:
			proj := bson.D{}
			hasID := false
			for _, f := range s.Fields {
				as := fieldPath(f.As)
				if as == "_id" {
					hasID = true
				}
				proj = append(proj, bson.E{Key: as, Value: "$" + fieldPath(f.Path)})
			}
			if !hasID {
				proj = append(bson.D{{Key: "_id", Value: 0}}, proj...)
			}
			out = append(out, bson.D{{Key: "$project", Value: proj}})
		case docstore.Skip:
			out = append(out, bson.D{{Key: "$skip", Value: s.N}})
		case docstore.Limit:
			out = append(out, bson.D{{Key: "$limit", Value: s.N}})
		case docstore.Count:
			out = append(out, bson.D{{Key: "$count", Value: s.As}})
		default:
			return nil, fmt.Errorf("%w: %T", docstore.ErrUnsupportedStage, st)
		}
	}
	return out, nil
}

func translateFilter(f docstore.Filter) bson.D {
	out := bson.D{}
	for _, c := range f {
		field := fieldPath(c.Field)
		switch c.Op {
		case docstore.OpEq:
			out = append(out, bson.E{Key: field, Value: toBSON(c.Values[0])})
		case docstore.OpIn:
			vals := bson.A{}
			for _, v := range c.Values {
				vals = append(vals, toBSON(v))
			}
			out = append(out, bson.E{Key: field, Value: bson.D{{Key: "$in", Value: vals}}})
		}
	}
	return out
}

// fieldPath maps every "id" path segment onto Mongo's _id.
func fieldPath(path string) string {
	parts := strings.Split(path, ".")
	for i, p := range parts {
		if p == "id" {
			parts[i] = "_id"
		}
	}
	return strings.Join(parts, ".")
}

// toBSON converts a document value for the driver: ids move to _id and
// json.Number becomes a native number.
func toBSON(v any) any {
	switch x := v.(type) {
	case docstore.Document:
		return toBSON(map[string]any(x))
	case map[string]any:
		out := bson.D{}
		if id, ok := x["id"]; ok {
			out = append(out, bson.E{Key: "_id", Value: toBSON(id)})
		}
		for k, el := range x {
			if k == "id" {
				continue
			}
			out = append(out, bson.E{Key: k, Value: toBSON(el)})
		}
		return out
	case []any:
		out := make(bson.A, len(x))
		for i, el := range x {
			out[i] = toBSON(el)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	default:
		return v
	}
}

// fromRaw decodes through relaxed extended JSON so numbers arrive as
// json.Number like every other backend.
func fromRaw(raw bson.Raw) (docstore.Document, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc, err := docstore.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	renameIDs(doc)
	return doc, nil
}

func renameIDs(m map[string]any) {
	if id, ok := m["_id"]; ok {
		m["id"] = id
		delete(m, "_id")
	}
	for _, v := range m {
		switch x := v.(type) {
		case map[string]any:
			renameIDs(x)
		case []any:
			for _, el := range x {
				if sub, ok := el.(map[string]any); ok {
					renameIDs(sub)
				}
			}
		}
	}
}

func drain(ctx context.Context, cur *mongo.Cursor) ([]docstore.Document, error) {
	defer cur.Close(ctx)

	var docs []docstore.Document
	for cur.Next(ctx) {
		doc, err := fromRaw(cur.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return docs, nil
}

var _ docstore.Store = (*Store)(nil)
