package analyzer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apk-analysis/libdetect-go/internal/axml"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/libmatch"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func words(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// buildBinaryManifest 构造一份最小的二进制清单:
// <manifest package="com.example.app">
//   <application>
//     <service android:name="org.acra.sender.SenderService" />
//   </application>
// </manifest>
func buildBinaryManifest() []byte {
	strs := []string{
		"android",                        // 0
		"http://schemas.android.com/apk/res/android", // 1
		"manifest",    // 2
		"package",     // 3
		"com.example.app", // 4
		"application", // 5
		"service",     // 6
		"name",        // 7
		"org.acra.sender.SenderService", // 8
	}

	// UTF-8 字符串池
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
	pool := words(0x001C0001, stringsStart+uint32(len(data)), uint32(len(strs)), 0, 0x00000100, stringsStart, 0)
	pool = append(pool, words(offsets...)...)
	pool = append(pool, data...)

	var buf []byte
	buf = append(buf, words(0x00080003, 0)...)
	buf = append(buf, pool...)
	buf = append(buf, words(0x00100100, 24, 1, 0xFFFFFFFF, 0, 1)...) // xmlns:android

	buf = append(buf, words(0x00100102, 56, 2, 0xFFFFFFFF, 0xFFFFFFFF, 2, 0x00140014, 1, 0)...) // <manifest package=...>
	buf = append(buf, words(0xFFFFFFFF, 3, 4, 0x03000008, 4)...)

	buf = append(buf, words(0x00100102, 36, 3, 0xFFFFFFFF, 0xFFFFFFFF, 5, 0x00140014, 0, 0)...) // <application>

	buf = append(buf, words(0x00100102, 56, 4, 0xFFFFFFFF, 0xFFFFFFFF, 6, 0x00140014, 1, 0)...) // <service android:name=...>
	buf = append(buf, words(1, 7, 8, 0x03000008, 8)...)
	buf = append(buf, words(0x00100103, 24, 4, 0xFFFFFFFF, 0xFFFFFFFF, 6)...)

	buf = append(buf, words(0x00100103, 24, 5, 0xFFFFFFFF, 0xFFFFFFFF, 5)...)
	buf = append(buf, words(0x00100103, 24, 6, 0xFFFFFFFF, 0xFFFFFFFF, 2)...)
	buf = append(buf, words(0x00100101, 24, 6, 0xFFFFFFFF, 0, 1)...)
	return buf
}

func acraTable() *libmatch.Table {
	t := libmatch.NewTable(1)
	t.Add(libmatch.KindNative, "libacra.so", &libmatch.Entry{UUID: "U1", Label: "ACRA", Category: "crash"})
	t.Add(libmatch.KindService, "org.acra.sender.SenderService", &libmatch.Entry{UUID: "U1", Label: "ACRA", Category: "crash"})
	return t
}

func writeTestAPK(t *testing.T, manifestData []byte, libPaths []string) string {
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

	path := filepath.Join(t.TempDir(), "test.apk")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestAnalyzeEndToEnd(t *testing.T) {
	apk := writeTestAPK(t, buildBinaryManifest(), []string{
		"lib/arm64-v8a/libacra-5.9.7.so",
		"lib/armeabi-v7a/libacra-5.9.7.so",
	})

	var stages []domain.TaskStage
	res, err := New(quietLogger()).Analyze(context.Background(), apk, acraTable(), func(s domain.TaskStage) {
		stages = append(stages, s)
	})
	require.NoError(t, err)

	// 清单摘要
	assert.Equal(t, "com.example.app", res.Manifest.Package)
	assert.Equal(t, []string{"org.acra.sender.SenderService"}, res.Manifest.Services)

	// 原生信号 + 组件信号聚合为同一 uuid 的唯一记录
	require.Len(t, res.Libraries.Libraries, 1)
	lib := res.Libraries.Libraries[0]
	assert.Equal(t, "U1", lib.UUID)
	assert.Equal(t, "ACRA", lib.Label)
	assert.Equal(t, 3, lib.Count) // 原生 2 次 + 组件 1 次
	assert.Equal(t, []string{"arm64-v8a", "armeabi-v7a"}, lib.Architectures)
	assert.Len(t, lib.Locations, 3)

	// 阶段通知按固定顺序
	assert.Equal(t, []domain.TaskStage{
		domain.StageExtract,
		domain.StageParse,
		domain.StageScan,
		domain.StageMatch,
		domain.StageComplete,
	}, stages)
}

func TestAnalyzeDecodeFailureIsFatal(t *testing.T) {
	manifestData := buildBinaryManifest()
	apk := writeTestAPK(t, manifestData[:len(manifestData)-10], nil)

	_, err := New(quietLogger()).Analyze(context.Background(), apk, acraTable(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, axml.ErrUnexpectedEOB)
}

func TestAnalyzeMissingManifest(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("classes.dex")
	require.NoError(t, err)
	_, err = f.Write([]byte("dex"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	apk := filepath.Join(t.TempDir(), "nomanifest.apk")
	require.NoError(t, os.WriteFile(apk, buf.Bytes(), 0o644))

	_, err = New(quietLogger()).Analyze(context.Background(), apk, acraTable(), nil)
	assert.Error(t, err)
}

func TestAnalyzeProgressDroppable(t *testing.T) {
	apk := writeTestAPK(t, buildBinaryManifest(), []string{"lib/arm64-v8a/libacra.so"})

	// 不挂进度回调, 结果必须与挂了回调时一致
	res, err := New(quietLogger()).Analyze(context.Background(), apk, acraTable(), nil)
	require.NoError(t, err)
	require.Len(t, res.Libraries.Libraries, 1)
	assert.Equal(t, "U1", res.Libraries.Libraries[0].UUID)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(quietLogger()).AnalyzeEntries(ctx, buildBinaryManifest(), nil, acraTable(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
