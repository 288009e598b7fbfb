package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo over the learners, level_sessions
// and attempts tables.
type progressRepo struct {
	db  *sql.DB
	b   *entsql.DialectBuilder
	seq *sequenceCounter
	hub *watchHub
}

func (r *progressRepo) LoadOrCreate(ctx context.Context, name string) (*ProgressRecord, bool, error) {
	key := LearnerKey(name)
	if key == "" {
		return nil, false, errors.New("learner name is empty")
	}

	existing, err := r.Get(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		display := strings.TrimSpace(name)
		if existing.Name != display {
			q, args := r.b.Update(tableLearners).
				Set("name", display).
				Set("updated_at", time.Now().UTC()).
				Where(entsql.EQ("learner_key", key)).
				Query()
			if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
				return nil, false, fmt.Errorf("update learner name: %w", err)
			}
			existing.Name = display
		}
		return existing, false, nil
	}

	now := time.Now().UTC()
	q, args := r.b.Insert(tableLearners).
		Columns("learner_key", "name", "current_exercise_index", "completed_exercises", "created_at", "updated_at").
		Values(key, strings.TrimSpace(name), 0, 0, now, now).
		OnConflict(entsql.ConflictColumns("learner_key"), entsql.DoNothing()).
		Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, false, fmt.Errorf("create learner: %w", err)
	}
	n, _ := res.RowsAffected()

	rec, err := r.Get(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if n > 0 {
		r.hub.publish(key, rec)
	}
	return rec, n > 0, nil
}

func (r *progressRepo) Get(ctx context.Context, name string) (*ProgressRecord, error) {
	key := LearnerKey(name)

	q, args := r.b.Select("name", "current_level", "current_exercise_index", "completed_exercises").
		From(r.b.Table(tableLearners)).
		Where(entsql.EQ("learner_key", key)).
		Query()

	rec := &ProgressRecord{Key: key}
	var level sql.NullString
	err := r.db.QueryRowContext(ctx, q, args...).
		Scan(&rec.Name, &level, &rec.CurrentExerciseIndex, &rec.CompletedExercises)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query learner: %w", err)
	}
	rec.CurrentLevel = level.String

	if rec.Sessions, err = r.sessions(ctx, key); err != nil {
		return nil, err
	}
	if rec.Attempts, err = r.attempts(ctx, key); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *progressRepo) sessions(ctx context.Context, key string) ([]SessionEntry, error) {
	q, args := r.b.Select("level", "date", "completed_exercises", "recorded_at").
		From(r.b.Table(tableSessions)).
		Where(entsql.EQ("learner_key", key)).
		OrderBy(entsql.Asc("sequence")).
		Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionEntry
	for rows.Next() {
		var e SessionEntry
		if err := rows.Scan(&e.Level, &e.Date, &e.CompletedExercises, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *progressRepo) attempts(ctx context.Context, key string) ([]AttemptEntry, error) {
	q, args := r.b.Select("level", "exercise_index", "correct", "attempt_number", "recorded_at").
		From(r.b.Table(tableAttempts)).
		Where(entsql.EQ("learner_key", key)).
		OrderBy(entsql.Asc("sequence")).
		Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptEntry
	for rows.Next() {
		var e AttemptEntry
		if err := rows.Scan(&e.Level, &e.ExerciseIndex, &e.Correct, &e.AttemptNumber, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *progressRepo) UpdateSnapshot(ctx context.Context, name string, patch SnapshotPatch) error {
	key := LearnerKey(name)

	u := r.b.Update(tableLearners).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("learner_key", key))
	switch {
	case patch.ClearLevel:
		u.SetNull("current_level")
	case patch.CurrentLevel != nil:
		u.Set("current_level", *patch.CurrentLevel)
	}
	if patch.CurrentExerciseIndex != nil {
		u.Set("current_exercise_index", *patch.CurrentExerciseIndex)
	}
	if patch.CompletedExercises != nil {
		u.Set("completed_exercises", *patch.CompletedExercises)
	}

	q, args := u.Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update snapshot %q: %w", key, ErrLearnerNotFound)
	}
	r.notify(ctx, key)
	return nil
}

func (r *progressRepo) AppendSession(ctx context.Context, name string, entry SessionEntry) error {
	key := LearnerKey(name)
	if err := r.requireLearner(ctx, key); err != nil {
		return err
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	q, args := r.b.Insert(tableSessions).
		Columns("sequence", "timestamp", "learner_key", "level", "date", "completed_exercises", "recorded_at").
		Values(seqNum, time.Now().UTC(), key, entry.Level, entry.Date, entry.CompletedExercises, entry.Timestamp).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	r.notify(ctx, key)
	return nil
}

func (r *progressRepo) AppendAttempt(ctx context.Context, name string, entry AttemptEntry) error {
	key := LearnerKey(name)
	if err := r.requireLearner(ctx, key); err != nil {
		return err
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	q, args := r.b.Insert(tableAttempts).
		Columns("sequence", "timestamp", "learner_key", "level", "exercise_index", "correct", "attempt_number", "recorded_at").
		Values(seqNum, time.Now().UTC(), key, entry.Level, entry.ExerciseIndex, entry.Correct, entry.AttemptNumber, entry.Timestamp).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	r.notify(ctx, key)
	return nil
}

func (r *progressRepo) Watch(ctx context.Context, name string) (<-chan *ProgressRecord, error) {
	key := LearnerKey(name)
	rec, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.hub.subscribe(ctx, key, rec), nil
}

func (r *progressRepo) Reset(ctx context.Context, name string) error {
	key := LearnerKey(name)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{tableAttempts, tableSessions, tableLearners} {
		q, args := r.b.Delete(table).Where(entsql.EQ("learner_key", key)).Query()
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	r.hub.publish(key, nil)
	return nil
}

func (r *progressRepo) requireLearner(ctx context.Context, key string) error {
	q, args := r.b.Select().Count().
		From(r.b.Table(tableLearners)).
		Where(entsql.EQ("learner_key", key)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return fmt.Errorf("lookup learner: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("learner %q: %w", key, ErrLearnerNotFound)
	}
	return nil
}

// notify pushes a fresh record to watchers. Skipped when nobody watches.
func (r *progressRepo) notify(ctx context.Context, key string) {
	if !r.hub.watched(key) {
		return
	}
	rec, err := r.Get(ctx, key)
	if err != nil {
		return
	}
	r.hub.publish(key, rec)
}
