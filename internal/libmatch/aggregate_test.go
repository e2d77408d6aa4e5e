package libmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acraTable() *Table {
	t := NewTable(1)
	t.Add(KindNative, "libacra.so", &Entry{ID: 1, UUID: "U1", Label: "ACRA", Category: "crash", Developer: "ACRA"})
	t.Add(KindService, "org.acra.sender.SenderService", &Entry{ID: 1, UUID: "U1", Label: "ACRA", Category: "crash", Developer: "ACRA"})
	t.Add(KindNative, "libmmkv.so", &Entry{ID: 2, UUID: "U2", Label: "MMKV", Category: "storage", Developer: "Tencent"})
	return t
}

func TestAggregateCrossSignalUnification(t *testing.T) {
	// 同一 uuid 的原生信号与组件信号必须合并为一条记录
	s := NewSession(acraTable())
	natives := []NativeRecord{
		{Name: "libacra-5.9.7.so", Count: 2, Paths: []string{"lib/arm64-v8a/libacra-5.9.7.so", "lib/armeabi-v7a/libacra-5.9.7.so"}, ABIs: []string{"arm64-v8a", "armeabi-v7a"}},
	}
	components := []ComponentRecord{
		{Kind: KindService, Name: "org.acra.sender.SenderService"},
	}

	res := Aggregate(s, natives, components)
	require.Len(t, res.Libraries, 1)

	lib := res.Libraries[0]
	assert.Equal(t, "U1", lib.UUID)
	assert.Equal(t, "ACRA", lib.Label)
	assert.Equal(t, 3, lib.Count)
	assert.Equal(t, []string{
		"lib/arm64-v8a/libacra-5.9.7.so",
		"lib/armeabi-v7a/libacra-5.9.7.so",
		"services:org.acra.sender.SenderService",
	}, lib.Locations)
	assert.Equal(t, []string{"arm64-v8a", "armeabi-v7a"}, lib.Architectures)
}

func TestAggregateMergeLawNoDedup(t *testing.T) {
	// 同一条原生记录喂两次: 计数翻倍, 位置列表精确重复
	s := NewSession(acraTable())
	rec := NativeRecord{Name: "libacra.so", Count: 2, Paths: []string{"lib/arm64-v8a/libacra.so", "lib/armeabi-v7a/libacra.so"}, ABIs: []string{"arm64-v8a", "armeabi-v7a"}}

	res := Aggregate(s, []NativeRecord{rec, rec}, nil)
	require.Len(t, res.Libraries, 1)
	assert.Equal(t, 4, res.Libraries[0].Count)
	assert.Equal(t, []string{
		"lib/arm64-v8a/libacra.so",
		"lib/armeabi-v7a/libacra.so",
		"lib/arm64-v8a/libacra.so",
		"lib/armeabi-v7a/libacra.so",
	}, res.Libraries[0].Locations)
	assert.Equal(t, []string{"arm64-v8a", "armeabi-v7a"}, res.Libraries[0].Architectures)
}

func TestAggregateUnmatchedNativePlaceholder(t *testing.T) {
	s := NewSession(acraTable())
	natives := []NativeRecord{
		{Name: "libunknownthing.so", Count: 1, Paths: []string{"lib/arm64-v8a/libunknownthing.so"}, ABIs: []string{"arm64-v8a"}},
	}

	res := Aggregate(s, natives, nil)
	require.Len(t, res.Libraries, 1)
	assert.Equal(t, "", res.Libraries[0].UUID)
	assert.Equal(t, "libunknownthing.so", res.Libraries[0].Name)
	assert.Equal(t, 1, res.UnmatchedNative)
}

func TestAggregateObfuscatedNative(t *testing.T) {
	s := NewSession(acraTable())
	natives := []NativeRecord{
		{Name: "libdeadbeef01.so", Count: 1, Paths: []string{"lib/x86/libdeadbeef01.so"}, ABIs: []string{"x86"}},
	}

	res := Aggregate(s, natives, nil)
	require.Len(t, res.Libraries, 1)
	assert.True(t, res.Libraries[0].Obfuscated)
	assert.Equal(t, 1, res.ObfuscatedNative)
	assert.Equal(t, 0, res.UnmatchedNative)
}

func TestAggregateUnmatchedComponentDropped(t *testing.T) {
	// 组件信号与原生不对称: 未命中直接丢弃, 不产生占位记录
	s := NewSession(acraTable())
	components := []ComponentRecord{
		{Kind: KindActivity, Name: "com.example.app.MainActivity"},
	}

	res := Aggregate(s, nil, components)
	assert.Empty(t, res.Libraries)
	assert.Equal(t, 1, res.DroppedComponents)
}

func TestAggregateSortedByLabel(t *testing.T) {
	s := NewSession(acraTable())
	natives := []NativeRecord{
		{Name: "libmmkv.so", Count: 1, Paths: []string{"lib/arm64-v8a/libmmkv.so"}, ABIs: []string{"arm64-v8a"}},
		{Name: "libacra.so", Count: 1, Paths: []string{"lib/arm64-v8a/libacra.so"}, ABIs: []string{"arm64-v8a"}},
	}

	res := Aggregate(s, natives, nil)
	require.Len(t, res.Libraries, 2)
	assert.Equal(t, "ACRA", res.Libraries[0].Label)
	assert.Equal(t, "MMKV", res.Libraries[1].Label)
}
