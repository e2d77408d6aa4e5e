// Package nativelib 扫描归档条目路径, 收集 lib/<abi>/<name>.so 形式的原生库
package nativelib

import (
	"sort"
	"strings"
)

// Entry 单个原生库文件名的聚合结果
type Entry struct {
	Name  string   `json:"name"`  // 文件名, 例如 libfoo.so
	Count int      `json:"count"` // 出现次数 (跨 ABI 同名累加)
	Paths []string `json:"paths"` // 归档内完整路径
	ABIs  []string `json:"abis"`  // 去重后的 ABI 列表, 升序
}

// Result 一次扫描的输出
type Result struct {
	Entries      []Entry `json:"entries"`
	IgnoredPaths int     `json:"ignored_paths"` // lib/ 下不符合三段结构而被忽略的路径数
}

// Scanner 原生库扫描器
type Scanner struct{}

// NewScanner 创建扫描器
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan 扫描归档条目路径列表
// 只接受恰好 lib/<abi>/<name>.so 三段结构; lib/ 下其他深度的路径计入 IgnoredPaths
func (s *Scanner) Scan(paths []string) *Result {
	type acc struct {
		count int
		paths []string
		abis  map[string]struct{}
	}
	byName := make(map[string]*acc)
	var order []string
	res := &Result{}

	for _, p := range paths {
		if !strings.HasPrefix(p, "lib/") {
			continue
		}
		parts := strings.Split(p, "/")
		if len(parts) != 3 || parts[1] == "" || !strings.HasSuffix(parts[2], ".so") {
			res.IgnoredPaths++
			continue
		}

		name := parts[2]
		a, ok := byName[name]
		if !ok {
			a = &acc{abis: make(map[string]struct{})}
			byName[name] = a
			order = append(order, name)
		}
		a.count++
		a.paths = append(a.paths, p)
		a.abis[parts[1]] = struct{}{}
	}

	for _, name := range order {
		a := byName[name]
		abis := make([]string, 0, len(a.abis))
		for abi := range a.abis {
			abis = append(abis, abi)
		}
		sort.Strings(abis)
		res.Entries = append(res.Entries, Entry{
			Name:  name,
			Count: a.count,
			Paths: a.paths,
			ABIs:  abis,
		})
	}
	return res
}
