package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fastOptions() *Options {
	return &Options{
		Debounce:     20 * time.Millisecond,
		StableWindow: 10 * time.Millisecond,
		MaxWaits:     20,
	}
}

// collector 记录 handler 收到的路径
type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) handle(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	return nil
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherHandlesNewAPK(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	w, err := New(dir, c.handle, fastOptions(), quietLogger())
	require.NoError(t, err)
	defer w.Stop()
	w.Start(context.Background())

	apk := filepath.Join(dir, "new.apk")
	require.NoError(t, os.WriteFile(apk, []byte("PK\x03\x04"), 0o644))

	waitFor(t, func() bool { return len(c.snapshot()) > 0 }, "handler never called")
	assert.Equal(t, []string{apk}, c.snapshot())
}

func TestWatcherIgnoresNonAPK(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	w, err := New(dir, c.handle, fastOptions(), quietLogger())
	require.NoError(t, err)
	defer w.Stop()
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.apk"), []byte("PK"), 0o644))

	waitFor(t, func() bool { return len(c.snapshot()) > 0 }, "handler never called")
	time.Sleep(100 * time.Millisecond)

	paths := c.snapshot()
	require.Len(t, paths, 1)
	assert.Equal(t, "real.apk", filepath.Base(paths[0]))
}

func TestWatcherDebouncesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	w, err := New(dir, c.handle, fastOptions(), quietLogger())
	require.NoError(t, err)
	defer w.Stop()
	w.Start(context.Background())

	// 模拟分块复制: 多次追加写同一个文件
	apk := filepath.Join(dir, "big.apk")
	f, err := os.OpenFile(apk, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = f.Write([]byte("chunkchunk"))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	waitFor(t, func() bool { return len(c.snapshot()) > 0 }, "handler never called")
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, c.snapshot(), 1)
}

func TestWatcherCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "apks")
	w, err := New(dir, func(ctx context.Context, path string) error { return nil }, fastOptions(), quietLogger())
	require.NoError(t, err)
	defer w.Stop()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, w.WatchDir())
}
