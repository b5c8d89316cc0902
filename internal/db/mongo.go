package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo builds a client for url. The driver connects lazily, so a
// reachable server is only confirmed by the store's Ping.
func ConnectMongo(ctx context.Context, url string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(url).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("db: connect mongo: %w", err)
	}
	return client, nil
}
