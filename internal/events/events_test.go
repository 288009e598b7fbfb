package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexi/internal/store"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) types() []Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Type, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Type
	}
	return out
}

func openRepo(t *testing.T) store.ProgressRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.ProgressRepo()
}

func TestPublishingRepoPublishesWrites(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	repo := NewPublishingRepo(openRepo(t), pub, nil)

	_, created, err := repo.LoadOrCreate(ctx, "Ana")
	require.NoError(t, err)
	require.True(t, created)

	// A second load is a read and publishes nothing.
	_, _, err = repo.LoadOrCreate(ctx, "ana")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSnapshot(ctx, "Ana", store.SnapshotPatch{
		CurrentLevel:         store.Ptr("21-40"),
		CurrentExerciseIndex: store.Ptr(0),
	}))
	require.NoError(t, repo.AppendSession(ctx, "Ana", store.SessionEntry{Level: "21-40", Date: "2026-10-17", Timestamp: 1}))
	require.NoError(t, repo.AppendAttempt(ctx, "Ana", store.AttemptEntry{Level: "21-40", Correct: true, AttemptNumber: 1, Timestamp: 2}))
	require.NoError(t, repo.Reset(ctx, "Ana"))

	assert.Equal(t, []Type{
		TypeLearnerCreated,
		TypeSnapshotUpdated,
		TypeSessionAppended,
		TypeAttemptAppended,
		TypeLearnerReset,
	}, pub.types())

	ids := map[string]bool{}
	for _, ev := range pub.events {
		assert.Equal(t, "ana", ev.Learner)
		assert.NotEmpty(t, ev.ID)
		ids[ev.ID] = true
	}
	assert.Len(t, ids, len(pub.events))

	snap := pub.events[1].Payload.(map[string]any)
	assert.Equal(t, "21-40", snap["currentLevel"])
	assert.Equal(t, 0, snap["currentExerciseIndex"])
	assert.NotContains(t, snap, "completedExercises")
}

func TestPublishingRepoSkipsFailedWrites(t *testing.T) {
	pub := &fakePublisher{}
	repo := NewPublishingRepo(openRepo(t), pub, nil)

	err := repo.AppendAttempt(context.Background(), "nobody", store.AttemptEntry{})
	require.Error(t, err)
	assert.Empty(t, pub.types())
}

func TestPublishingRepoIgnoresPublishErrors(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	repo := NewPublishingRepo(openRepo(t), pub, nil)

	_, _, err := repo.LoadOrCreate(ctx, "Ana")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSnapshot(ctx, "Ana", store.SnapshotPatch{ClearLevel: true}))

	rec, err := repo.Get(ctx, "Ana")
	require.NoError(t, err)
	assert.Empty(t, rec.CurrentLevel)
}

func TestSnapshotPayloadClearWins(t *testing.T) {
	got := snapshotPayload(store.SnapshotPatch{ClearLevel: true, CurrentLevel: store.Ptr("1-20"), CompletedExercises: store.Ptr(0)})
	assert.Equal(t, map[string]any{"currentLevel": nil, "completedExercises": 0}, got)
}

func TestAMQPPublisher(t *testing.T) {
	url := os.Getenv("LEXI_TEST_AMQP_URL")
	if url == "" {
		t.Skip("LEXI_TEST_AMQP_URL not set")
	}
	exchange := "lexi.test." + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "."))
	pub, err := Dial(url, exchange)
	require.NoError(t, err)
	defer pub.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "progress.*", exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ev := NewEvent(TypeAttemptAppended, "Ana", store.AttemptEntry{Level: "1-20", Correct: true, AttemptNumber: 2})
	require.NoError(t, pub.Publish(context.Background(), ev))

	select {
	case d := <-deliveries:
		assert.Equal(t, string(TypeAttemptAppended), d.RoutingKey)
		assert.Equal(t, ev.ID, d.MessageId)
		var got Event
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, "ana", got.Learner)
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
}
