// Package docstore implements the user, task and team repositories on
// MongoDB. Teams are single documents with their task list embedded, so every
// team mutation is one conditional update.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
	tasksCollection    = "personal_tasks"
	teamsCollection    = "teams"
)

// DB wraps a connected client and the application database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	pool   *poolTracker
}

// Connect opens a client against uri and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	pool := &poolTracker{}
	opts := options.Client().ApplyURI(uri).SetPoolMonitor(pool.monitor())
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &DB{client: client, db: client.Database(database), pool: pool}, nil
}

// Ping checks that the server is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// indexes lists the indexes each collection needs.
func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		teamsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the unique, lookup and TTL indexes. It is safe to
// run repeatedly.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexes() {
		if _, err := d.collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}
