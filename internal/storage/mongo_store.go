package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"complaintdesk/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const complaintsCollection = "complaints"

type complaintDoc struct {
	ID       string `bson:"_id"`
	Position int    `bson:"position"`
	Status   string `bson:"status"`
	Payload  string `bson:"payload"`
}

// MongoStore keeps complaints in a MongoDB collection, one document per complaint.
type MongoStore struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

// NewMongoStore connects to uri and pings the server.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("storage: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("storage: ping mongo: %w", err)
	}
	return &MongoStore{
		Client:     client,
		Collection: client.Database(database).Collection(complaintsCollection),
	}, nil
}

func (s *MongoStore) LoadAll(ctx context.Context) ([]models.Complaint, error) {
	cur, err := s.Collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("storage: find complaints: %w", err)
	}

	var docs []complaintDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("storage: read complaints: %w", err)
	}

	complaints := make([]models.Complaint, 0, len(docs))
	for _, doc := range docs {
		var c models.Complaint
		if err := json.Unmarshal([]byte(doc.Payload), &c); err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", ErrCorruptStore, doc.ID, err)
		}
		complaints = append(complaints, c)
	}
	return complaints, nil
}

// SaveAll deletes every document and inserts the new list. Standalone servers have
// no multi-document transactions, so a failure between the two steps loses data.
func (s *MongoStore) SaveAll(ctx context.Context, complaints []models.Complaint) error {
	docs, err := toDocs(complaints)
	if err != nil {
		return err
	}

	if _, err := s.Collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("storage: clear complaints: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := s.Collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("storage: insert complaints: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

func toDocs(complaints []models.Complaint) ([]interface{}, error) {
	docs := make([]interface{}, 0, len(complaints))
	for i, c := range complaints {
		payload, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("storage: encode complaint %s: %w", c.ID, err)
		}
		docs = append(docs, complaintDoc{
			ID:       c.ID,
			Position: i,
			Status:   c.Status,
			Payload:  string(payload),
		})
	}
	return docs, nil
}
