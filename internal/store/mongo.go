package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/craftrealm/realm-api/internal/audit"
)

// ConnectMongo opens and pings a MongoDB client.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "store: connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "store: ping mongo")
	}
	return client, nil
}

// MongoJournal appends economy events to the journal collection.
type MongoJournal struct {
	col *mongo.Collection
}

var _ audit.Recorder = (*MongoJournal)(nil)

func NewMongoJournal(db *mongo.Database) *MongoJournal {
	return &MongoJournal{col: db.Collection("journal")}
}

func (j *MongoJournal) Record(ctx context.Context, e audit.Event) error {
	if _, err := j.col.InsertOne(ctx, e); err != nil {
		return errors.Wrap(err, "store: journal insert")
	}
	return nil
}

// ListByUser returns the user's most recent events, newest first.
func (j *MongoJournal) ListByUser(ctx context.Context, userID int64, limit int64) ([]audit.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := j.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "store: journal find")
	}
	defer cur.Close(ctx)

	events := []audit.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, errors.Wrap(err, "store: journal decode")
	}
	return events, nil
}
