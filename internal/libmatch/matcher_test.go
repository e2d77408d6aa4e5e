package libmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWith(version uint64, kind Kind, pairs ...interface{}) *Table {
	t := NewTable(version)
	for i := 0; i < len(pairs); i += 2 {
		t.Add(kind, pairs[i].(string), pairs[i+1].(*Entry))
	}
	return t
}

func TestMatchExactKey(t *testing.T) {
	e := &Entry{UUID: "U1", Label: "MMKV"}
	s := NewSession(tableWith(1, KindNative, "libmmkv.so", e))

	out := s.Match(KindNative, "libmmkv.so")
	require.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "U1", out.Entry.UUID)
}

func TestMatchPriorityLaw(t *testing.T) {
	// 归一化命中优先于子串命中:
	// libfoo-5.9.7.so 必须命中 libfoo.so 而不是 foo
	a := &Entry{UUID: "A", Label: "A"}
	b := &Entry{UUID: "B", Label: "B"}
	s := NewSession(tableWith(1, KindNative, "libfoo.so", a, "foo", b))

	out := s.Match(KindNative, "libfoo-5.9.7.so")
	require.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "A", out.Entry.UUID)
}

func TestMatchHashClassification(t *testing.T) {
	// 8 位十六进制核心判定为混淆名, 即使目录键恰好是它的十六进制子串
	e := &Entry{UUID: "X", Label: "X"}
	s := NewSession(tableWith(1, KindNative, "aeec", e))

	out := s.Match(KindNative, "libA3AEECD8.so")
	assert.Equal(t, StatusObfuscated, out.Status)
	assert.Nil(t, out.Entry)
}

func TestMatchHashLengthBounds(t *testing.T) {
	s := NewSession(NewTable(1))

	// 7 位不算, 17 位不算
	assert.Equal(t, StatusNone, s.Match(KindNative, "libabc1234.so").Status)
	assert.Equal(t, StatusNone, s.Match(KindNative, "lib0123456789abcdef0.so").Status)
	// 8 位与 16 位算
	assert.Equal(t, StatusObfuscated, s.Match(KindNative, "libdeadbeef.so").Status)
	assert.Equal(t, StatusObfuscated, s.Match(KindNative, "lib0123456789abcdef.so").Status)
}

func TestMatchSubstringScan(t *testing.T) {
	e := &Entry{UUID: "F", Label: "Flutter"}
	s := NewSession(tableWith(1, KindNative, "flutter", e))

	// 精确与候选都不命中, 子串扫描 (大小写不敏感, 去扩展名) 命中
	out := s.Match(KindNative, "myFlutterWrapper.so")
	require.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "F", out.Entry.UUID)
}

func TestMatchSubstringInsertionOrder(t *testing.T) {
	// 多个键都可命中时, 按插入顺序先到先得
	first := &Entry{UUID: "1", Label: "first"}
	second := &Entry{UUID: "2", Label: "second"}
	s := NewSession(tableWith(1, KindNative, "alpha", first, "alphabeta", second))

	out := s.Match(KindNative, "xxalphabetaxx.so")
	require.Equal(t, StatusMatched, out.Status)
	assert.Equal(t, "1", out.Entry.UUID)
}

func TestMatchPartitionIsolation(t *testing.T) {
	e := &Entry{UUID: "U", Label: "U"}
	s := NewSession(tableWith(1, KindActivity, "com.sdk.MainActivity", e))

	assert.Equal(t, StatusMatched, s.Match(KindActivity, "com.sdk.MainActivity").Status)
	assert.Equal(t, StatusNone, s.Match(KindService, "com.sdk.MainActivity").Status)
}

func TestMatchMemoBoundToTableVersion(t *testing.T) {
	e := &Entry{UUID: "U1", Label: "MMKV"}
	s := NewSession(tableWith(7, KindNative, "libmmkv.so", e))
	require.Equal(t, StatusMatched, s.Match(KindNative, "libmmkv.so").Status)

	// 同版本换表: 记忆化结果保留 (缓存按版本绑定)
	s.Rebind(NewTable(7))
	assert.Equal(t, StatusMatched, s.Match(KindNative, "libmmkv.so").Status)

	// 版本变化: 缓存整体失效, 新表里没有该键
	s.Rebind(NewTable(8))
	assert.Equal(t, StatusNone, s.Match(KindNative, "libmmkv.so").Status)
}

func TestMatchMemoized(t *testing.T) {
	e := &Entry{UUID: "U1", Label: "MMKV"}
	table := tableWith(1, KindNative, "libmmkv.so", e)
	s := NewSession(table)

	first := s.Match(KindNative, "libmmkv-1.2.so")
	second := s.Match(KindNative, "libmmkv-1.2.so")
	assert.Equal(t, first, second)
}
