package repository

import (
	"context"
	"fmt"

	"FinEnrich/internal/domain/models"
	"FinEnrich/internal/domain/repository"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

type documentInserter interface {
	InsertMany(ctx context.Context, docs []any) (int, error)
}

type collectionInserter struct {
	coll *mongo.Collection
}

func (c collectionInserter) InsertMany(ctx context.Context, docs []any) (int, error) {
	res, err := c.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// MongoSink appends every enriched record as one document.
type MongoSink struct {
	inserter documentInserter
}

// NewMongoSink creates a sink writing to coll.
func NewMongoSink(coll *mongo.Collection) repository.Sink {
	return &MongoSink{inserter: collectionInserter{coll: coll}}
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Write(ctx context.Context, records []models.EnrichedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]any, len(records))
	for i, r := range records {
		if r.News == nil {
			r.News = []models.NewsItem{}
		}
		docs[i] = r
	}

	n, err := s.inserter.InsertMany(ctx, docs)
	if err != nil {
		return n, fmt.Errorf("insert many: %w", err)
	}
	return n, nil
}
