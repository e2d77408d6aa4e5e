package repository

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

// setupTaskTestDB 创建任务测试数据库
func setupTaskTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to open test database")

	err = db.AutoMigrate(&domain.Task{}, &domain.LibraryReport{})
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestTaskRepository_CreateAndFind(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	task := &domain.Task{
		ID:      "task-001",
		APKName: "demo.apk",
		APKPath: "/data/apk/demo.apk",
		Status:  domain.TaskStatusQueued,
	}
	require.NoError(t, repo.Create(ctx, task))

	found, err := repo.FindByID(ctx, "task-001")
	require.NoError(t, err)
	assert.Equal(t, "demo.apk", found.APKName)
	assert.Equal(t, domain.TaskStatusQueued, found.Status)
}

func TestTaskRepository_Lifecycle(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	task := &domain.Task{ID: "task-002", APKName: "demo.apk", APKPath: "/data/apk/demo.apk", Status: domain.TaskStatusQueued}
	require.NoError(t, repo.Create(ctx, task))

	require.NoError(t, repo.MarkRunning(ctx, task.ID))
	require.NoError(t, repo.UpdateProgress(ctx, task.ID, domain.StageScan, domain.StageScan.Percent()))

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusRunning, found.Status)
	assert.Equal(t, domain.StageScan, found.Stage)
	assert.Equal(t, 60, found.Progress)
	assert.NotNil(t, found.StartedAt)

	require.NoError(t, repo.MarkCompleted(ctx, task.ID))
	found, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, found.Status)
	assert.Equal(t, 100, found.Progress)
	assert.NotNil(t, found.CompletedAt)
	assert.True(t, found.IsTerminal())
}

func TestTaskRepository_MarkFailed(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	task := &domain.Task{ID: "task-003", APKName: "bad.apk", APKPath: "/data/apk/bad.apk", Status: domain.TaskStatusRunning}
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.MarkFailed(ctx, task.ID, "manifest decode failed"))

	found, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, found.Status)
	assert.Equal(t, "manifest decode failed", found.ErrorMessage)
}

func TestTaskRepository_ListWithPagination(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	for _, task := range []*domain.Task{
		{ID: "t-1", APKName: "alpha.apk", APKPath: "/a", Status: domain.TaskStatusCompleted},
		{ID: "t-2", APKName: "beta.apk", APKPath: "/b", Status: domain.TaskStatusQueued},
		{ID: "t-3", APKName: "alpha-v2.apk", APKPath: "/c", Status: domain.TaskStatusQueued},
	} {
		require.NoError(t, repo.Create(ctx, task))
	}

	tasks, total, err := repo.ListWithPagination(ctx, 1, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, tasks, 3)

	tasks, total, err = repo.ListWithPagination(ctx, 1, 10, string(domain.TaskStatusQueued), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	tasks, total, err = repo.ListWithPagination(ctx, 1, 10, "", "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, task := range tasks {
		assert.Contains(t, task.APKName, "alpha")
	}
}

func TestTaskRepository_HasRecentTaskForAPK(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Task{ID: "t-1", APKName: "dup.apk", APKPath: "/a", Status: domain.TaskStatusQueued}))

	recent, err := repo.HasRecentTaskForAPK(ctx, "dup.apk", 60)
	require.NoError(t, err)
	assert.True(t, recent)

	recent, err = repo.HasRecentTaskForAPK(ctx, "other.apk", 60)
	require.NoError(t, err)
	assert.False(t, recent)
}

func TestTaskRepository_GetStatusCounts(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db, quietLogger())
	ctx := context.Background()

	for _, task := range []*domain.Task{
		{ID: "t-1", APKName: "a.apk", APKPath: "/a", Status: domain.TaskStatusQueued},
		{ID: "t-2", APKName: "b.apk", APKPath: "/b", Status: domain.TaskStatusQueued},
		{ID: "t-3", APKName: "c.apk", APKPath: "/c", Status: domain.TaskStatusCompleted},
	} {
		require.NoError(t, repo.Create(ctx, task))
	}

	counts, total, err := repo.GetStatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), counts[string(domain.TaskStatusQueued)])
	assert.Equal(t, int64(1), counts[string(domain.TaskStatusCompleted)])
}

func TestReportRepository_SaveOverwrites(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	report := &domain.LibraryReport{TaskID: "task-001", PackageName: "com.example.app", MatchedCount: 2}
	require.NoError(t, repo.Save(ctx, report))

	// 同一 task_id 再保存一次: 覆盖而不是冲突
	report2 := &domain.LibraryReport{TaskID: "task-001", PackageName: "com.example.app", MatchedCount: 5}
	require.NoError(t, repo.Save(ctx, report2))

	found, err := repo.FindByTaskID(ctx, "task-001")
	require.NoError(t, err)
	assert.Equal(t, 5, found.MatchedCount)
}
