package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is a WorkflowStore backed by a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed workflow store.
// dbName defaults to "nodeflux" if empty, collName defaults to "workflows".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "nodeflux"
	}
	if collName == "" {
		collName = "workflows"
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
	}
}

type mongoWorkflowDoc struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	Data      []byte `bson:"data"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (d mongoWorkflowDoc) workflow() *Workflow {
	return &Workflow{
		ID:        d.ID,
		Name:      d.Name,
		Data:      json.RawMessage(d.Data),
		CreatedAt: fromMillis(d.CreatedAt),
		UpdatedAt: fromMillis(d.UpdatedAt),
	}
}

func (s *MongoStore) CreateWorkflow(ctx context.Context, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}
	ts := now()
	doc := mongoWorkflowDoc{
		ID:        newID(),
		Name:      name,
		Data:      data,
		CreatedAt: ts.UnixMilli(),
		UpdatedAt: ts.UnixMilli(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.workflow(), nil
}

func (s *MongoStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	var doc mongoWorkflowDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return doc.workflow(), nil
}

func (s *MongoStore) UpdateWorkflow(ctx context.Context, id, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"name":       name,
			"data":       []byte(data),
			"updated_at": now().UnixMilli(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoWorkflowDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return doc.workflow(), nil
}

func (s *MongoStore) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrWorkflowNotFound
	}
	return nil
}

func (s *MongoStore) ListWorkflows(ctx context.Context) ([]*Workflow, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "updated_at", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []*Workflow{}
	for cur.Next(ctx) {
		var doc mongoWorkflowDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, doc.workflow())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
