package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/queue"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestQueue struct {
	Queue     *queue.TaskQueue
	Config    config.RedisConfig
	container *redis.RedisContainer
	Redis     *rdb.Client
	Inspector *asynq.Inspector // (this is for inspecting the queue in tests)
}

func NewTestQueue(t *testing.T) *TestQueue {
	ctx := context.Background()

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithReuseByName("pawdesk-test-redis"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Ready to accept connections").
					WithStartupTimeout(30*time.Second),
				wait.ForListeningPort("6379/tcp").
					WithStartupTimeout(30*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start Redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err, "Failed to get redis connection string")

	redisConfig := config.RedisConfig{Addr: endpoint}

	taskQueue, err := queue.NewQueue(&redisConfig)
	require.NoError(t, err, "Failed to create application queue wrapper")

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: endpoint})

	// direct access for assertions and flushing
	redisClient := rdb.NewClient(&rdb.Options{Addr: endpoint})

	return &TestQueue{
		Queue:     taskQueue,
		Config:    redisConfig,
		container: redisContainer,
		Redis:     redisClient,
		Inspector: inspector,
	}
}

func (tQ *TestQueue) Cleanup(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tQ.Redis.FlushDB(ctx).Err(); err != nil {
		t.Logf("WARNING: failed to flush Redis between tests: %v", err)
	}
}

// PendingTasks returns the pending tasks of a queue.
func (tQ *TestQueue) PendingTasks(t *testing.T, queueName string) []*asynq.TaskInfo {
	t.Helper()
	tasks, err := tQ.Inspector.ListPendingTasks(queueName)
	if err != nil {
		// asynq reports an unknown queue before the first enqueue
		return nil
	}
	return tasks
}

func (tq *TestQueue) Close() {
	if tq.Queue != nil {
		tq.Queue.Close()
	}
	if tq.Inspector != nil {
		tq.Inspector.Close()
	}
	if tq.Redis != nil {
		tq.Redis.Close()
	}
}
