package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/newsetl/internal/types"
)

// MongoSink loads cleaned tables into a MongoDB collection. Each row becomes
// one document whose _id is the row uid.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoSink connects to uri and verifies the connection.
func NewMongoSink(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: SinkMongoDB, Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: SinkMongoDB, Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Name() string { return SinkMongoDB }

// Load implements Sink with one unordered bulk upsert.
func (s *MongoSink) Load(ctx context.Context, table *types.Table) (int, error) {
	if err := requireKey(SinkMongoDB, table); err != nil {
		return 0, err
	}
	if table.Len() == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, 0, table.Len())
	for _, row := range table.Rows {
		doc := rowDocument(table.Columns, row)
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc["_id"]}}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, &types.StorageError{Backend: SinkMongoDB, Err: fmt.Errorf("bulk upsert: %w", err)}
	}

	n := int(res.UpsertedCount + res.MatchedCount)
	s.count += n
	s.logger.Debug("documents upserted",
		"upserted", res.UpsertedCount,
		"matched", res.MatchedCount,
		"total", s.count,
	)
	return n, nil
}

// rowDocument converts a row into a document. The uid becomes _id and token
// counts are stored as integers.
func rowDocument(columns []string, row *types.Row) bson.M {
	doc := make(bson.M, len(columns))
	for _, col := range columns {
		v, ok := row.Get(col)
		if !ok {
			continue
		}
		switch col {
		case types.ColumnUID:
			doc["_id"] = v
		case types.ColumnNTokensTitle, types.ColumnNTokensBody:
			if n, err := strconv.Atoi(v); err == nil {
				doc[col] = n
			} else {
				doc[col] = v
			}
		default:
			doc[col] = v
		}
	}
	return doc
}

func (s *MongoSink) Close() error {
	s.logger.Info("mongodb sink closing", "total_documents", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
