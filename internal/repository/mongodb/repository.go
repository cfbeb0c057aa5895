package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/metrics"
	"github.com/mamadbah2/incubator/internal/repository/codec"
)

const (
	sessionsCollection = "sessions"
	countersCollection = "counters"
	sessionsCounterID  = "sessions"
)

// sessionDocument mirrors the SQL row layout: the batch list stays an encoded
// text blob so every backend shares one codec.
type sessionDocument struct {
	ID        int64  `bson:"_id"`
	Name      string `bson:"name"`
	StartDate string `bson:"start_date"`
	Batches   string `bson:"batches"`
}

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// MongoDBRepository stores incubation sessions in MongoDB.
type MongoDBRepository struct {
	client  *mongo.Client
	dbName  string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger, m *metrics.Metrics) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to mongodb: %w", models.ErrStorageUnavailable, err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping mongodb: %w", models.ErrStorageUnavailable, err)
	}

	return &MongoDBRepository{
		client:  client,
		dbName:  dbName,
		logger:  logger,
		metrics: m,
	}, nil
}

func (r *MongoDBRepository) sessions() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(sessionsCollection)
}

// Initialize ensures the index used by the listing order exists.
func (r *MongoDBRepository) Initialize(ctx context.Context) error {
	_, err := r.sessions().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("%w: create sessions index: %w", models.ErrStorageUnavailable, err)
	}
	return nil
}

// Insert stores a session under the next value of the sessions counter.
func (r *MongoDBRepository) Insert(ctx context.Context, session models.IncubationSession) (int64, error) {
	defer r.metrics.ObserveStore("insert")()

	blob, err := codec.EncodeBatches(session.Batches)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrStorageWrite, err)
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: allocate session id: %w", models.ErrStorageWrite, err)
	}

	doc := sessionDocument{
		ID:        id,
		Name:      session.Name,
		StartDate: models.DateOf(session.StartDate).Format(models.DateLayout),
		Batches:   blob,
	}
	if _, err := r.sessions().InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("%w: insert session: %w", models.ErrStorageWrite, err)
	}

	r.metrics.SessionCreated()
	r.logger.Info("session stored", zap.Int64("id", id), zap.String("name", session.Name))
	return id, nil
}

func (r *MongoDBRepository) nextID(ctx context.Context) (int64, error) {
	var counter counterDocument
	err := r.client.Database(r.dbName).Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": sessionsCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// ListAll returns every session, newest start date first. Undecodable batch
// blobs load as an empty list with LoadWarning set.
func (r *MongoDBRepository) ListAll(ctx context.Context) ([]models.IncubationSession, error) {
	defer r.metrics.ObserveStore("list")()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.sessions().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find sessions: %w", models.ErrStorageRead, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	sessions := make([]models.IncubationSession, 0)
	for cursor.Next(ctx) {
		var doc sessionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode session document: %w", models.ErrStorageRead, err)
		}
		start, err := models.ParseDate(doc.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: session %d: %w", models.ErrStorageRead, doc.ID, err)
		}
		session := models.IncubationSession{ID: doc.ID, Name: doc.Name, StartDate: start}

		batches, err := codec.DecodeBatches(doc.Batches)
		if err != nil {
			r.metrics.DecodeFailed()
			r.logger.Warn("session batches could not be decoded, loading it empty",
				zap.Int64("id", doc.ID),
				zap.String("blob", doc.Batches),
				zap.Error(err))
			batches = []models.Batch{}
			session.LoadWarning = err.Error()
		}
		session.Batches = batches
		sessions = append(sessions, session)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %w", models.ErrStorageRead, err)
	}
	return sessions, nil
}

// Delete removes a session; a missing id is a no-op.
func (r *MongoDBRepository) Delete(ctx context.Context, id int64) error {
	defer r.metrics.ObserveStore("delete")()

	res, err := r.sessions().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: delete session %d: %w", models.ErrStorageWrite, id, err)
	}
	if res.DeletedCount > 0 {
		r.metrics.SessionDeleted()
		r.logger.Info("session deleted", zap.Int64("id", id))
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}
