package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

func TestPoolSubmitAndWait(t *testing.T) {
	env := setupEnv(t)
	apk := writeAPK(t, testManifest(), []string{"lib/arm64-v8a/libacra.so"})
	task := createTask(t, env, apk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(2, 10, env.orchestrator, quietLogger())
	pool.Start(ctx)
	defer pool.Stop()

	err := pool.SubmitAndWait(ctx, &Task{ID: task.ID, APKPath: apk})
	require.NoError(t, err)

	got, err := env.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}

func TestPoolSubmitAndWaitPropagatesFailure(t *testing.T) {
	env := setupEnv(t)
	manifest := testManifest()
	apk := writeAPK(t, manifest[:len(manifest)-10], nil)
	task := createTask(t, env, apk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(1, 10, env.orchestrator, quietLogger())
	pool.Start(ctx)
	defer pool.Stop()

	err := pool.SubmitAndWait(ctx, &Task{ID: task.ID, APKPath: apk})
	assert.Error(t, err)
}

func TestPoolSubmitQueueFull(t *testing.T) {
	// 不启动 worker, 队列容量 1
	pool := NewPool(1, 1, nil, quietLogger())

	require.NoError(t, pool.Submit(&Task{ID: "t1", APKPath: "a.apk"}))
	err := pool.Submit(&Task{ID: "t2", APKPath: "b.apk"})
	assert.Error(t, err)
	assert.Equal(t, 1, pool.QueueSize())
}
