// Package libmatch 实现第三方库名称的归一化、规则匹配与多信号聚合
package libmatch

// Kind 规则分区 (按信号来源划分)
type Kind string

const (
	KindNative   Kind = "native"
	KindActivity Kind = "activities"
	KindService  Kind = "services"
	KindProvider Kind = "providers"
	KindReceiver Kind = "receivers"
	KindStatic   Kind = "static"
	KindAction   Kind = "actions"
)

// ComponentKinds 参与组件信号匹配的四类分区
var ComponentKinds = []Kind{KindActivity, KindService, KindProvider, KindReceiver}

// Entry 单条规则 (目录条目)
// UUID 是跨信号统一同一逻辑库的稳定标识
type Entry struct {
	ID            uint   `json:"id"`
	UUID          string `json:"uuid"`
	Label         string `json:"label"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	CategoryIcon  string `json:"category_icon"`
	Developer     string `json:"developer"`
	Description   string `json:"description"`
	SourceLink    string `json:"source_link"`
	Type          string `json:"type"`
}

// partition 单个分区, 保留键的插入顺序 (子串扫描按插入顺序迭代)
type partition struct {
	keys    []string
	entries map[string]*Entry
}

func (p *partition) put(key string, e *Entry) {
	if _, exists := p.entries[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.entries[key] = e
}

func (p *partition) get(key string) (*Entry, bool) {
	e, ok := p.entries[key]
	return e, ok
}

// Table 规则表的不可变快照
// Version 随每次目录刷新递增, 匹配会话据此判断缓存是否过期
type Table struct {
	Version    uint64
	partitions map[Kind]*partition
}

// NewTable 创建指定版本的空规则表
func NewTable(version uint64) *Table {
	return &Table{
		Version:    version,
		partitions: make(map[Kind]*partition),
	}
}

// Add 向指定分区追加一条规则, 同键后写覆盖但不改变插入位置
func (t *Table) Add(kind Kind, key string, e *Entry) {
	p, ok := t.partitions[kind]
	if !ok {
		p = &partition{entries: make(map[string]*Entry)}
		t.partitions[kind] = p
	}
	p.put(key, e)
}

// Lookup 在指定分区做精确键查找
func (t *Table) Lookup(kind Kind, key string) (*Entry, bool) {
	if p, ok := t.partitions[kind]; ok {
		return p.get(key)
	}
	return nil, false
}

// Keys 指定分区的键, 按插入顺序
func (t *Table) Keys(kind Kind) []string {
	if p, ok := t.partitions[kind]; ok {
		return p.keys
	}
	return nil
}

// Size 全表规则条数
func (t *Table) Size() int {
	n := 0
	for _, p := range t.partitions {
		n += len(p.keys)
	}
	return n
}
