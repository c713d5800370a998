package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// MongoStore reads content from the CMS MongoDB database.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// OpenMongo connects to uri, pings the primary and selects database.
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("devtracker-site").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "connect to mongo").
			Retryable().
			WithContext("database", database).Build()
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, foundation.WrapError(err, foundation.CategoryStore, "ping mongo").
			Retryable().
			WithContext("database", database).Build()
	}
	return &MongoStore{client: client, db: client.Database(database), timeout: timeout}, nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, f Filter) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.db.Collection(collection).Find(ctx, bsonFilter(f))
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "find documents").
			WithContext("collection", collection).
			WithContext("filter", f.String()).Build()
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "decode documents").
			WithContext("collection", collection).Build()
	}
	out := make([]Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, Document(normalizeBSON(m).(map[string]any)))
	}
	return out, nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, f Filter) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bsonFilter(f)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "find document").
			WithContext("collection", collection).
			WithContext("filter", f.String()).Build()
	}
	return Document(normalizeBSON(m).(map[string]any)), nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// bsonFilter renders f as a MongoDB query. Conditions on a repeated field are joined with $and.
func bsonFilter(f Filter) bson.D {
	seen := map[string]bool{}
	repeated := false
	for _, c := range f {
		if seen[c.Field] {
			repeated = true
		}
		seen[c.Field] = true
	}
	if repeated {
		and := bson.A{}
		for _, c := range f {
			and = append(and, bson.D{bsonCondition(c)})
		}
		return bson.D{{Key: "$and", Value: and}}
	}
	out := bson.D{}
	for _, c := range f {
		out = append(out, bsonCondition(c))
	}
	return out
}

func bsonCondition(c Condition) bson.E {
	if c.Op == OpNe {
		return bson.E{Key: c.Field, Value: bson.D{{Key: "$ne", Value: c.Value}}}
	}
	return bson.E{Key: c.Field, Value: c.Value}
}

// normalizeBSON converts driver types into plain maps, slices and scalars so
// templates see the same shapes regardless of driver.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeBSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeBSON(val)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}
