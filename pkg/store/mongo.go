package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/errors"
)

const chartCollection = "charts"

// MongoStore persists chart documents in a MongoDB collection, one
// document per chart keyed by name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to the given URI and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(chartCollection),
	}, nil
}

// Save upserts the document by name.
func (s *MongoStore) Save(ctx context.Context, doc chart.Document) error {
	if doc.Name == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "document name must not be empty")
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"name": doc.Name},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %q", doc.Name)
	}
	return nil
}

// Load retrieves a document by name.
func (s *MongoStore) Load(ctx context.Context, name string) (chart.Document, error) {
	var doc chart.Document
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return chart.Document{}, errors.New(errors.ErrCodeChartNotFound, "no chart named %q", name)
	}
	if err != nil {
		return chart.Document{}, errors.Wrap(errors.ErrCodeInternal, err, "load %q", name)
	}
	return doc, nil
}

// List returns all stored chart names.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"name": 1}).SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list charts")
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var row struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode chart row")
		}
		names = append(names, row.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "iterate charts")
	}
	return names, nil
}

// Delete removes a document by name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete %q", name)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeChartNotFound, "no chart named %q", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ ChartStore = (*MongoStore)(nil)
