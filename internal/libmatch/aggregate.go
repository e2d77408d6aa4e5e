package libmatch

import "sort"

// NativeRecord 原生库信号 (来自归档扫描)
type NativeRecord struct {
	Name  string
	Count int
	Paths []string
	ABIs  []string
}

// ComponentRecord 组件信号 (来自清单提取)
type ComponentRecord struct {
	Kind Kind
	Name string
}

// MatchedLibrary 一个逻辑库的聚合记录
// 同一 uuid 在一次分析结果中至多出现一条, 跨原生与四类组件信号累积
type MatchedLibrary struct {
	ID            uint     `json:"id"`
	UUID          string   `json:"uuid"`
	Name          string   `json:"name"`
	Label         string   `json:"label"`
	Category      string   `json:"category"`
	CategoryLabel string   `json:"category_label"`
	Developer     string   `json:"developer"`
	Description   string   `json:"description"`
	SourceLink    string   `json:"source_link"`
	Type          string   `json:"type"`
	Obfuscated    bool     `json:"obfuscated"`
	Count         int      `json:"count"`
	Locations     []string `json:"locations"`
	Architectures []string `json:"architectures"`
}

// AggregateResult 聚合输出, Libraries 按显示标签升序
type AggregateResult struct {
	Libraries         []MatchedLibrary `json:"libraries"`
	UnmatchedNative   int              `json:"unmatched_native"`   // 未识别 (占位记录)
	ObfuscatedNative  int              `json:"obfuscated_native"`  // 疑似混淆/哈希名 (占位记录)
	DroppedComponents int              `json:"dropped_components"` // 未命中而被丢弃的组件信号
}

type record struct {
	lib   MatchedLibrary
	archs map[string]struct{}
}

// Aggregate 把原生与组件两路信号合并为唯一逻辑库记录列表
// 原生信号合并键 = 命中时的 uuid, 否则字面文件名 (未命中也保留占位);
// 组件信号合并键 = 仅 uuid, 未命中直接丢弃 (与原生的不对称行为, 有意保留)
// 计数累加, 位置列表原样串接不去重, 架构集合求并
func Aggregate(session *Session, natives []NativeRecord, components []ComponentRecord) *AggregateResult {
	byKey := make(map[string]*record)
	res := &AggregateResult{}

	ensure := func(key string) *record {
		r, ok := byKey[key]
		if !ok {
			r = &record{archs: make(map[string]struct{})}
			byKey[key] = r
		}
		return r
	}

	for _, n := range natives {
		out := session.Match(KindNative, n.Name)

		var r *record
		switch out.Status {
		case StatusMatched:
			e := out.Entry
			r = ensure(e.UUID)
			if r.lib.UUID == "" {
				r.lib = MatchedLibrary{
					ID:            e.ID,
					UUID:          e.UUID,
					Name:          n.Name,
					Label:         e.Label,
					Category:      e.Category,
					CategoryLabel: e.CategoryLabel,
					Developer:     e.Developer,
					Description:   e.Description,
					SourceLink:    e.SourceLink,
					Type:          e.Type,
				}
			}
		case StatusObfuscated:
			res.ObfuscatedNative++
			r = ensure(n.Name)
			if r.lib.Name == "" {
				r.lib = MatchedLibrary{Name: n.Name, Label: n.Name, Obfuscated: true}
			}
		default:
			res.UnmatchedNative++
			r = ensure(n.Name)
			if r.lib.Name == "" {
				r.lib = MatchedLibrary{Name: n.Name, Label: n.Name}
			}
		}

		r.lib.Count += n.Count
		r.lib.Locations = append(r.lib.Locations, n.Paths...)
		for _, abi := range n.ABIs {
			r.archs[abi] = struct{}{}
		}
	}

	for _, c := range components {
		out := session.Match(c.Kind, c.Name)
		if out.Status != StatusMatched {
			res.DroppedComponents++
			continue
		}
		e := out.Entry
		r := ensure(e.UUID)
		if r.lib.UUID == "" {
			r.lib = MatchedLibrary{
				ID:            e.ID,
				UUID:          e.UUID,
				Name:          c.Name,
				Label:         e.Label,
				Category:      e.Category,
				CategoryLabel: e.CategoryLabel,
				Developer:     e.Developer,
				Description:   e.Description,
				SourceLink:    e.SourceLink,
				Type:          e.Type,
			}
		}
		r.lib.Count++
		r.lib.Locations = append(r.lib.Locations, string(c.Kind)+":"+c.Name)
	}

	for _, r := range byKey {
		if len(r.archs) > 0 {
			archs := make([]string, 0, len(r.archs))
			for a := range r.archs {
				archs = append(archs, a)
			}
			sort.Strings(archs)
			r.lib.Architectures = archs
		}
		res.Libraries = append(res.Libraries, r.lib)
	}

	sort.Slice(res.Libraries, func(i, j int) bool {
		a, b := res.Libraries[i], res.Libraries[j]
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.Name < b.Name
	})
	return res
}
