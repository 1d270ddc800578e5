package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each collection as a MongoDB collection keyed by string _id.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects and pings the server.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

// Get loads one document by id.
func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Document{}, ErrNotFound
		}
		return Document{}, errors.Wrapf(err, "mongo get %s/%s", collection, id)
	}
	return fromBSON(raw), nil
}

// Query runs a find with filters translated to a bson document.
func (m *Mongo) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if emptyIn(filters) {
		return nil, nil
	}
	cursor, err := m.db.Collection(collection).Find(ctx, mongoFilter(filters))
	if err != nil {
		return nil, errors.Wrapf(err, "mongo query %s", collection)
	}
	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "mongo decode %s", collection)
	}
	out := make([]Document, 0, len(rows))
	for _, raw := range rows {
		out = append(out, fromBSON(raw))
	}
	return out, nil
}

// Add inserts data under a new uuid.
func (m *Mongo) Add(ctx context.Context, collection string, data Doc) (string, error) {
	id := uuid.NewString()
	if err := m.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Create inserts data under id; the _id unique index turns a second insert into ErrConflict.
func (m *Mongo) Create(ctx context.Context, collection, id string, data Doc) error {
	doc := bson.M{"_id": id}
	for k, v := range data {
		doc[k] = v
	}
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return errors.Wrapf(err, "mongo insert %s", collection)
	}
	return nil
}

// Update applies $set with fields.
func (m *Mongo) Update(ctx context.Context, collection, id string, fields Doc) error {
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return errors.Wrapf(err, "mongo update %s/%s", collection, id)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one document.
func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "mongo delete %s/%s", collection, id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func mongoFilter(filters []Filter) bson.M {
	out := bson.M{}
	for _, f := range filters {
		field := f.Field
		if field == IDField {
			field = "_id"
		}
		switch f.Op {
		case OpEq:
			out[field] = f.Value
		case OpIn:
			out[field] = bson.M{"$in": f.Value}
		}
	}
	return out
}

func fromBSON(raw bson.M) Document {
	id, _ := raw["_id"].(string)
	data := make(Doc, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		data[k] = v
	}
	return Document{ID: id, Data: data}
}
