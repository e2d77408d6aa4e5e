package libmatch

import (
	"regexp"
	"strings"
)

// Status 匹配结果状态
type Status int

const (
	// StatusNone 未命中任何规则
	StatusNone Status = iota
	// StatusMatched 命中目录条目
	StatusMatched
	// StatusObfuscated 未命中且核心是 8-16 位纯十六进制, 判定为混淆/哈希名
	// 与 StatusNone 是两种不同结论, 报告侧分别计数
	StatusObfuscated
)

// Outcome 单个名称的匹配结论
type Outcome struct {
	Status Status
	Entry  *Entry // 仅 StatusMatched 时非空
}

// 混淆名核心: 8-16 位纯十六进制
var hexCoreRe = regexp.MustCompile(`^[0-9a-f]{8,16}$`)

// Session 单次分析的匹配会话
// 按字面名称记忆化; 缓存绑定规则表版本, 版本变化时整体失效
// 会话内部无锁, 同一会话不可并发使用
type Session struct {
	table *Table
	memo  map[Kind]map[string]Outcome
}

// NewSession 基于规则表快照创建会话
func NewSession(table *Table) *Session {
	return &Session{
		table: table,
		memo:  make(map[Kind]map[string]Outcome),
	}
}

// Rebind 切换到新的规则表快照
// 版本不同则丢弃全部记忆化结果, 跨版本的陈旧命中是正确性缺陷
func (s *Session) Rebind(table *Table) {
	if s.table == nil || s.table.Version != table.Version {
		s.memo = make(map[Kind]map[string]Outcome)
	}
	s.table = table
}

// Match 在指定分区内解析一个名称, 级联顺序先命中先赢:
// 1. 字面名精确查键
// 2. 按候选序列顺序逐个查键
// 3. 混淆名判定 (在子串扫描之前, 哈希名不被十六进制子串规则误领)
// 4. 大小写不敏感、去扩展名的子串扫描, 按目录插入顺序迭代
func (s *Session) Match(kind Kind, name string) Outcome {
	if cached, ok := s.memo[kind][name]; ok {
		return cached
	}
	out := s.resolve(kind, name)
	if s.memo[kind] == nil {
		s.memo[kind] = make(map[string]Outcome)
	}
	s.memo[kind][name] = out
	return out
}

func (s *Session) resolve(kind Kind, name string) Outcome {
	if e, ok := s.table.Lookup(kind, name); ok {
		return Outcome{Status: StatusMatched, Entry: e}
	}

	for _, c := range Candidates(name) {
		if e, ok := s.table.Lookup(kind, c); ok {
			return Outcome{Status: StatusMatched, Entry: e}
		}
	}

	if core := unwrap(strings.ToLower(name)); hexCoreRe.MatchString(core) {
		return Outcome{Status: StatusObfuscated}
	}

	target := stripExt(strings.ToLower(name))
	if target != "" {
		for _, key := range s.table.Keys(kind) {
			k := stripExt(strings.ToLower(key))
			if k == "" {
				continue
			}
			if strings.Contains(target, k) || strings.Contains(k, target) {
				e, _ := s.table.Lookup(kind, key)
				return Outcome{Status: StatusMatched, Entry: e}
			}
		}
	}

	return Outcome{Status: StatusNone}
}

func stripExt(s string) string {
	return strings.TrimSuffix(s, ".so")
}
