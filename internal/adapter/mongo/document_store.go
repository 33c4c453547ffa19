package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/lunchmate/internal/config"
	"github.com/YelzhanWeb/lunchmate/internal/domain"
	"github.com/YelzhanWeb/lunchmate/internal/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server error codes meaning the requested index is already there.
const (
	codeIndexAlreadyExists    = 68
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// DocumentStore maps each collection to a MongoDB collection, with the
// document id stored as _id.
type DocumentStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect builds one long-lived client shared by every operation.
func Connect(ctx context.Context, cfg config.MongoConfig) (*DocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &DocumentStore{client: client, db: client.Database(cfg.Database)}, nil
}

func (s *DocumentStore) FindOne(ctx context.Context, collection string, filter interfaces.Filter, out any) (bool, error) {
	q, err := toQuery(filter)
	if err != nil {
		return false, err
	}

	var doc bson.M
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := s.db.Collection(collection).FindOne(ctx, q, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find %s: %w", collection, err)
	}

	return true, fromBSON(doc, out)
}

func (s *DocumentStore) Find(ctx context.Context, collection string, filter interfaces.Filter, out any) error {
	q, err := toQuery(filter)
	if err != nil {
		return err
	}

	cursor, err := s.db.Collection(collection).Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("failed to read %s: %w", collection, err)
	}

	bodies := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		b, err := toJSON(doc)
		if err != nil {
			return err
		}
		bodies = append(bodies, b)
	}

	b, err := json.Marshal(bodies)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *DocumentStore) InsertOne(ctx context.Context, collection string, doc any) error {
	m, _, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}
	b, err := toBSON(m)
	if err != nil {
		return err
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, b); err != nil {
		return mapError(fmt.Sprintf("failed to insert into %s", collection), err)
	}
	return nil
}

// ReplaceOrUpsert replaces the first matching document, keeping its _id, or
// inserts doc. A lost insert race is retried once as a replace.
func (s *DocumentStore) ReplaceOrUpsert(ctx context.Context, collection string, filter interfaces.Filter, doc any) error {
	m, _, err := interfaces.EncodeDocument(doc)
	if err != nil {
		return err
	}
	q, err := toQuery(filter)
	if err != nil {
		return err
	}
	coll := s.db.Collection(collection)

	for attempt := 0; ; attempt++ {
		b, err := toBSON(m)
		if err != nil {
			return err
		}

		var existing bson.M
		opts := options.FindOne().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
		err = coll.FindOne(ctx, q, opts).Decode(&existing)
		switch {
		case err == nil:
			b["_id"] = existing["_id"]
			_, err = coll.ReplaceOne(ctx, bson.M{"_id": existing["_id"]}, b)
		case errors.Is(err, mongo.ErrNoDocuments):
			_, err = coll.InsertOne(ctx, b)
		default:
			return fmt.Errorf("failed to find %s: %w", collection, err)
		}

		if err == nil {
			return nil
		}
		err = mapError(fmt.Sprintf("failed to upsert into %s", collection), err)
		if attempt == 0 && errors.Is(err, domain.ErrDuplicateKey) {
			continue
		}
		return err
	}
}

func (s *DocumentStore) UpdateFields(ctx context.Context, collection string, filter interfaces.Filter, fields map[string]any) (int64, error) {
	set, err := interfaces.NormalizeFields(fields)
	if err != nil {
		return 0, err
	}
	setDoc, err := toBSON(set)
	if err != nil {
		return 0, err
	}
	delete(setDoc, "_id")
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).UpdateMany(ctx, q, bson.D{{Key: "$set", Value: setDoc}})
	if err != nil {
		return 0, mapError(fmt.Sprintf("failed to update %s", collection), err)
	}
	return res.MatchedCount, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection string, filter interfaces.Filter) (int64, error) {
	q, err := toQuery(filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.Collection(collection).DeleteMany(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates missing indexes. Server answers meaning the index is
// already present are accepted; duplicate documents blocking a new unique
// index are reported.
func (s *DocumentStore) EnsureIndexes(ctx context.Context, indexes []domain.Index) error {
	for _, idx := range indexes {
		keys := bson.D{}
		for _, f := range idx.Fields {
			keys = append(keys, bson.E{Key: f, Value: 1})
		}

		model := mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetName(idx.Name).SetUnique(idx.Unique),
		}
		_, err := s.db.Collection(idx.Collection).Indexes().CreateOne(ctx, model)
		if err == nil {
			continue
		}

		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			switch cmdErr.Code {
			case codeIndexAlreadyExists, codeIndexOptionsConflict, codeIndexKeySpecsConflict:
				continue
			}
		}
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create index %s: existing documents collide: %w", idx.Name, domain.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
	}
	return nil
}

func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func toQuery(filter interfaces.Filter) (bson.M, error) {
	eq, ranges, err := filter.Split()
	if err != nil {
		return nil, err
	}

	q, err := toBSON(eq)
	if err != nil {
		return nil, err
	}
	for field, r := range ranges {
		cond := bson.M{}
		if r.From != "" {
			cond["$gte"] = r.From
		}
		if r.To != "" {
			cond["$lte"] = r.To
		}
		if len(cond) > 0 {
			q[field] = cond
		}
	}
	return q, nil
}

// toBSON goes through extended JSON so integers stay integers and every
// value has the same shape the other stores persist.
func toBSON(m map[string]any) (bson.M, error) {
	if id, ok := m["id"]; ok {
		copied := make(map[string]any, len(m))
		for k, v := range m {
			copied[k] = v
		}
		delete(copied, "id")
		copied["_id"] = id
		m = copied
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	out := bson.M{}
	if err := bson.UnmarshalExtJSON(b, false, &out); err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}
	return out, nil
}

func toJSON(doc bson.M) (json.RawMessage, error) {
	if id, ok := doc["_id"]; ok {
		doc["id"] = id
		delete(doc, "_id")
	}
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}
	return b, nil
}

func fromBSON(doc bson.M, out any) error {
	b, err := toJSON(doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

func mapError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}
