package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func subscribeOne(t *testing.T, client *redis.Client) (<-chan *UpdateMessage, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan *UpdateMessage, 1)

	sub := NewSubscriber(client)
	go sub.Subscribe(ctx, func(msg *UpdateMessage) {
		select {
		case received <- msg:
		default:
		}
	})

	// 等订阅建立，避免发布先于订阅
	time.Sleep(50 * time.Millisecond)
	return received, cancel
}

func TestPublishAnalysisUpdate(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	received, cancel := subscribeOne(t, client)
	defer cancel()

	p := NewPublisher(client)
	va := &model.VariantAnalysis{
		ID:     42,
		UserID: 7,
		Status: model.StatusSucceeded,
	}
	require.NoError(t, p.PublishAnalysisUpdate(context.Background(), 7, va))

	select {
	case msg := <-received:
		assert.Equal(t, TypeAnalysisUpdated, msg.Type)
		assert.Equal(t, int64(7), msg.UserID)
		assert.Equal(t, int64(42), msg.AnalysisID)
		require.NotNil(t, msg.Analysis)
		assert.Equal(t, model.StatusSucceeded, msg.Analysis.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for analysis update")
	}
}

func TestPublishExportProgress(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	received, cancel := subscribeOne(t, client)
	defer cancel()

	p := NewPublisher(client)
	require.NoError(t, p.PublishExportProgress(context.Background(), 7, 42, StepGenerating, ""))

	select {
	case msg := <-received:
		assert.Equal(t, TypeExportProgress, msg.Type)
		assert.Equal(t, StepGenerating, msg.Step)
		assert.Equal(t, 100, msg.Progress)
		assert.NotEmpty(t, msg.Message)
		assert.Empty(t, msg.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for export progress")
	}
}

func TestSubscribeStopsOnContextCancel(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	sub := NewSubscriber(client)
	go func() {
		done <- sub.Subscribe(ctx, func(*UpdateMessage) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop after context cancel")
	}
}
