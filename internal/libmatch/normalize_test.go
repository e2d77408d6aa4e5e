package libmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidatesDeterministic(t *testing.T) {
	a := Candidates("libfoo-5.9.7.so")
	b := Candidates("libfoo-5.9.7.so")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestCandidatesOrder(t *testing.T) {
	cands := Candidates("libfoo-5.9.7.so")

	// 文件名形态的版本剥离结果必须先于裸核心出现
	idxWrapped, idxCore := -1, -1
	for i, c := range cands {
		if c == "libfoo.so" && idxWrapped == -1 {
			idxWrapped = i
		}
		if c == "foo" && idxCore == -1 {
			idxCore = i
		}
	}
	assert.GreaterOrEqual(t, idxWrapped, 0, "expected libfoo.so in %v", cands)
	assert.GreaterOrEqual(t, idxCore, 0, "expected foo in %v", cands)
	assert.Less(t, idxWrapped, idxCore)
}

func TestCandidatesDeduplicated(t *testing.T) {
	cands := Candidates("libmmkv.so")
	seen := make(map[string]int)
	for _, c := range cands {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, "duplicate candidate %q", c)
	}
}

func TestCandidatesLowercase(t *testing.T) {
	cands := Candidates("LibFlutter.SO")
	assert.Contains(t, cands, "libflutter.so")
	assert.Contains(t, cands, "flutter")
}

func TestCandidatesStripBuildSuffix(t *testing.T) {
	cands := Candidates("libumeng-debug.so")
	assert.Contains(t, cands, "libumeng.so")
	assert.Contains(t, cands, "umeng")
}

func TestCandidatesStripArchSuffix(t *testing.T) {
	cands := Candidates("libbugly_armeabi-v7a.so")
	assert.Contains(t, cands, "libbugly.so")
	assert.Contains(t, cands, "bugly")
}

func TestCandidatesPackagePrefixReduction(t *testing.T) {
	cands := Candidates("com_tencent_mmkv")
	assert.Contains(t, cands, "mmkv")
	// 归约后的核心同时补出文件名形态
	assert.Contains(t, cands, "libmmkv.so")
}

func TestCandidatesPackagePrefixNeedsThreeSegments(t *testing.T) {
	cands := Candidates("com_tencent")
	assert.NotContains(t, cands, "tencent")
}

func TestCandidatesVersionVariants(t *testing.T) {
	for _, name := range []string{"libacra-5.9.7.so", "libacra_v2.so", "libacra.5.so"} {
		cands := Candidates(name)
		assert.Contains(t, cands, "libacra.so", "input %q -> %v", name, cands)
	}
}
