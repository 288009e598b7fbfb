// Package mongostore keeps learner progress as one MongoDB document per
// learner, with the session and attempt logs embedded as arrays.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhisek/lexi/internal/store"
)

const collectionName = "progress"

// pollInterval is used by Watch when change streams are unavailable
// (standalone servers without a replica set).
var pollInterval = time.Second

// Store is a store.ProgressRepo backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
	logger *slog.Logger
}

// Open connects to uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		col:    client.Database(database).Collection(collectionName),
		logger: slog.Default(),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) LoadOrCreate(ctx context.Context, name string) (*store.ProgressRecord, bool, error) {
	key := store.LearnerKey(name)
	if key == "" {
		return nil, false, errors.New("learner name is empty")
	}

	// Upsert keeps the name current and seeds the initial snapshot only
	// when the document is new.
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$set": bson.M{"name": strings.TrimSpace(name)},
			"$setOnInsert": bson.M{
				"currentLevel":         nil,
				"currentExerciseIndex": 0,
				"completedExercises":   0,
				"sessions":             bson.A{},
				"attempts":             bson.A{},
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert learner: %w", err)
	}

	rec, err := s.Get(ctx, name)
	if err != nil {
		return nil, false, err
	}
	return rec, res.UpsertedCount > 0, nil
}

func (s *Store) Get(ctx context.Context, name string) (*store.ProgressRecord, error) {
	var rec store.ProgressRecord
	err := s.col.FindOne(ctx, bson.M{"_id": store.LearnerKey(name)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find learner: %w", err)
	}
	return &rec, nil
}

func (s *Store) UpdateSnapshot(ctx context.Context, name string, patch store.SnapshotPatch) error {
	set := bson.M{}
	switch {
	case patch.ClearLevel:
		set["currentLevel"] = nil
	case patch.CurrentLevel != nil:
		set["currentLevel"] = *patch.CurrentLevel
	}
	if patch.CurrentExerciseIndex != nil {
		set["currentExerciseIndex"] = *patch.CurrentExerciseIndex
	}
	if patch.CompletedExercises != nil {
		set["completedExercises"] = *patch.CompletedExercises
	}
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, name, bson.M{"$set": set})
}

func (s *Store) AppendSession(ctx context.Context, name string, entry store.SessionEntry) error {
	return s.update(ctx, name, bson.M{"$push": bson.M{"sessions": entry}})
}

func (s *Store) AppendAttempt(ctx context.Context, name string, entry store.AttemptEntry) error {
	return s.update(ctx, name, bson.M{"$push": bson.M{"attempts": entry}})
}

func (s *Store) update(ctx context.Context, name string, update bson.M) error {
	key := store.LearnerKey(name)
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": key}, update)
	if err != nil {
		return fmt.Errorf("update learner %q: %w", key, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update learner %q: %w", key, store.ErrLearnerNotFound)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context, name string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": store.LearnerKey(name)})
	if err != nil {
		return fmt.Errorf("delete learner: %w", err)
	}
	return nil
}

// Watch follows the learner's document with a change stream, falling back
// to polling when the server does not support change streams.
func (s *Store) Watch(ctx context.Context, name string) (<-chan *store.ProgressRecord, error) {
	initial, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make(chan *store.ProgressRecord, 1)
	out <- initial

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: store.LearnerKey(name)}}}},
	}
	cs, err := s.col.Watch(ctx, pipeline)
	if err != nil {
		s.logger.Debug("change streams unavailable, polling", "error", err)
		go s.poll(ctx, name, initial, out)
		return out, nil
	}

	go func() {
		defer close(out)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			rec, err := s.Get(ctx, name)
			if err != nil {
				s.logger.Warn("reload progress after change", "learner", name, "error", err)
				continue
			}
			sendLatest(out, rec)
		}
	}()
	return out, nil
}

func (s *Store) poll(ctx context.Context, name string, last *store.ProgressRecord, out chan *store.ProgressRecord) {
	defer close(out)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec, err := s.Get(ctx, name)
			if err != nil {
				continue
			}
			if !reflect.DeepEqual(rec, last) {
				last = rec
				sendLatest(out, rec)
			}
		}
	}
}

// sendLatest replaces any unread record with rec.
func sendLatest(ch chan *store.ProgressRecord, rec *store.ProgressRecord) {
	select {
	case ch <- rec:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- rec:
	default:
	}
}

var _ store.ProgressRepo = (*Store)(nil)
