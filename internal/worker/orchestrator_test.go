package worker

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/apk-analysis/libdetect-go/internal/analyzer"
	"github.com/apk-analysis/libdetect-go/internal/catalog"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type testEnv struct {
	db           *gorm.DB
	taskRepo     repository.TaskRepository
	reportRepo   repository.ReportRepository
	orchestrator *Orchestrator
	broadcaster  *recordingBroadcaster
}

// recordingBroadcaster 记录收到的进度通知
type recordingBroadcaster struct {
	mu     sync.Mutex
	stages []domain.TaskStage
}

func (b *recordingBroadcaster) BroadcastProgress(taskID string, stage domain.TaskStage, percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stages = append(b.stages, stage)
}

func (b *recordingBroadcaster) Stages() []domain.TaskStage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.TaskStage(nil), b.stages...)
}

func setupEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Task{}, &domain.LibraryReport{}, &domain.LibraryRule{}))

	rules := []domain.LibraryRule{
		{UUID: "U1", Kind: "native", Key: "libacra.so", Label: "ACRA", Category: "crash", Status: domain.RuleStatusEnabled, Source: domain.RuleSourceManual},
		{UUID: "U1", Kind: "services", Key: "org.acra.sender.SenderService", Label: "ACRA", Category: "crash", Status: domain.RuleStatusEnabled, Source: domain.RuleSourceManual},
	}
	require.NoError(t, db.Create(&rules).Error)

	log := quietLogger()
	taskRepo := repository.NewTaskRepository(db, log)
	reportRepo := repository.NewReportRepository(db)
	mgr := catalog.NewManager(db, log, time.Minute)
	broadcaster := &recordingBroadcaster{}

	o := NewOrchestrator(taskRepo, reportRepo, mgr, analyzer.New(log), broadcaster, nil, log)
	return &testEnv{
		db:           db,
		taskRepo:     taskRepo,
		reportRepo:   reportRepo,
		orchestrator: o,
		broadcaster:  broadcaster,
	}
}

func testWords(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// testManifest 最小二进制清单:
// <manifest package="com.example.app"><application>
//   <service android:name="org.acra.sender.SenderService" />
// </application></manifest>
func testManifest() []byte {
	strs := []string{
		"android",
		"http://schemas.android.com/apk/res/android",
		"manifest",
		"package",
		"com.example.app",
		"application",
		"service",
		"name",
		"org.acra.sender.SenderService",
	}

	var data []byte
	offsets := make([]uint32, len(strs))
	for i, s := range strs {
		offsets[i] = uint32(len(data))
		data = append(data, byte(len(s)))
		data = append(data, s...)
	}
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	stringsStart := uint32(28 + 4*len(strs))
	pool := testWords(0x001C0001, stringsStart+uint32(len(data)), uint32(len(strs)), 0, 0x00000100, stringsStart, 0)
	pool = append(pool, testWords(offsets...)...)
	pool = append(pool, data...)

	var buf []byte
	buf = append(buf, testWords(0x00080003, 0)...)
	buf = append(buf, pool...)
	buf = append(buf, testWords(0x00100100, 24, 1, 0xFFFFFFFF, 0, 1)...)

	buf = append(buf, testWords(0x00100102, 56, 2, 0xFFFFFFFF, 0xFFFFFFFF, 2, 0x00140014, 1, 0)...)
	buf = append(buf, testWords(0xFFFFFFFF, 3, 4, 0x03000008, 4)...)

	buf = append(buf, testWords(0x00100102, 36, 3, 0xFFFFFFFF, 0xFFFFFFFF, 5, 0x00140014, 0, 0)...)

	buf = append(buf, testWords(0x00100102, 56, 4, 0xFFFFFFFF, 0xFFFFFFFF, 6, 0x00140014, 1, 0)...)
	buf = append(buf, testWords(1, 7, 8, 0x03000008, 8)...)
	buf = append(buf, testWords(0x00100103, 24, 4, 0xFFFFFFFF, 0xFFFFFFFF, 6)...)

	buf = append(buf, testWords(0x00100103, 24, 5, 0xFFFFFFFF, 0xFFFFFFFF, 5)...)
	buf = append(buf, testWords(0x00100103, 24, 6, 0xFFFFFFFF, 0xFFFFFFFF, 2)...)
	buf = append(buf, testWords(0x00100101, 24, 6, 0xFFFFFFFF, 0, 1)...)
	return buf
}

func writeAPK(t *testing.T, manifestData []byte, libPaths []string) string {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("AndroidManifest.xml")
	require.NoError(t, err)
	_, err = f.Write(manifestData)
	require.NoError(t, err)

	for _, p := range libPaths {
		f, err := w.Create(p)
		require.NoError(t, err)
		_, err = f.Write([]byte{0x7F, 'E', 'L', 'F'})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "sample.apk")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func createTask(t *testing.T, env *testEnv, apkPath string) *domain.Task {
	task := &domain.Task{
		ID:      "task-0001",
		APKName: filepath.Base(apkPath),
		APKPath: apkPath,
		Status:  domain.TaskStatusQueued,
	}
	require.NoError(t, env.taskRepo.Create(context.Background(), task))
	return task
}

func TestExecuteTaskSuccess(t *testing.T) {
	env := setupEnv(t)
	apk := writeAPK(t, testManifest(), []string{"lib/arm64-v8a/libacra-5.9.7.so"})
	task := createTask(t, env, apk)

	err := env.orchestrator.ExecuteTask(context.Background(), task.ID, apk)
	require.NoError(t, err)

	got, err := env.taskRepo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.CompletedAt)

	report, err := env.reportRepo.FindByTaskID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "com.example.app", report.PackageName)
	assert.Equal(t, 1, report.MatchedCount)
	assert.Equal(t, 1, report.ServiceCount)
	assert.Equal(t, 1, report.NativeLibCount)
	assert.Contains(t, report.LibrariesJSON, "ACRA")
	assert.Contains(t, report.ManifestXML, "org.acra.sender.SenderService")

	assert.Equal(t, []domain.TaskStage{
		domain.StageExtract,
		domain.StageParse,
		domain.StageScan,
		domain.StageMatch,
		domain.StageComplete,
	}, env.broadcaster.Stages())
}

func TestExecuteTaskDecodeFailure(t *testing.T) {
	env := setupEnv(t)
	manifest := testManifest()
	apk := writeAPK(t, manifest[:len(manifest)-10], nil)
	task := createTask(t, env, apk)

	err := env.orchestrator.ExecuteTask(context.Background(), task.ID, apk)
	require.Error(t, err)

	got, findErr := env.taskRepo.FindByID(context.Background(), task.ID)
	require.NoError(t, findErr)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)

	_, reportErr := env.reportRepo.FindByTaskID(context.Background(), task.ID)
	assert.Error(t, reportErr)
}

func TestExecuteTaskMissingAPK(t *testing.T) {
	env := setupEnv(t)
	task := createTask(t, env, "/nonexistent/missing.apk")

	err := env.orchestrator.ExecuteTask(context.Background(), task.ID, task.APKPath)
	require.Error(t, err)

	got, findErr := env.taskRepo.FindByID(context.Background(), task.ID)
	require.NoError(t, findErr)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
}

func TestExecuteTaskReportOverwrite(t *testing.T) {
	env := setupEnv(t)
	apk := writeAPK(t, testManifest(), []string{"lib/arm64-v8a/libacra.so"})
	task := createTask(t, env, apk)

	require.NoError(t, env.orchestrator.ExecuteTask(context.Background(), task.ID, apk))
	require.NoError(t, env.orchestrator.ExecuteTask(context.Background(), task.ID, apk))

	// 同一任务重复分析只保留一份报告
	var count int64
	require.NoError(t, env.db.Model(&domain.LibraryReport{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
