package nativelib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	paths := []string{
		"AndroidManifest.xml",
		"classes.dex",
		"lib/arm64-v8a/libfoo.so",
		"lib/armeabi-v7a/libfoo.so",
		"lib/arm64-v8a/libbar.so",
		"lib/x86_64/libbar.so",
		"lib/arm64-v8a/extra/libnested.so", // 深度不符, 忽略
		"lib/readme.txt",                   // 不在 ABI 目录下, 忽略
		"lib/arm64-v8a/note.txt",           // 非 .so, 忽略
		"assets/lib/arm64-v8a/libfake.so",  // 前缀不是 lib/, 直接跳过不计数
	}

	res := NewScanner().Scan(paths)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, 3, res.IgnoredPaths)

	foo := res.Entries[0]
	assert.Equal(t, "libfoo.so", foo.Name)
	assert.Equal(t, 2, foo.Count)
	assert.Equal(t, []string{"lib/arm64-v8a/libfoo.so", "lib/armeabi-v7a/libfoo.so"}, foo.Paths)
	assert.Equal(t, []string{"arm64-v8a", "armeabi-v7a"}, foo.ABIs)

	bar := res.Entries[1]
	assert.Equal(t, "libbar.so", bar.Name)
	assert.Equal(t, []string{"arm64-v8a", "x86_64"}, bar.ABIs)
}

func TestScanEmpty(t *testing.T) {
	res := NewScanner().Scan(nil)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 0, res.IgnoredPaths)
}
