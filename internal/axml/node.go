package axml

import "strings"

// NamespaceDecl 命名空间声明 (在首次绑定的节点上序列化为 xmlns)
type NamespaceDecl struct {
	Prefix string `json:"prefix"`
	URI    string `json:"uri"`
}

// Attr 解码后的属性
// Value 为已渲染的文本值; RawType 保留原始类型字, 便于调用方区分类型
type Attr struct {
	Name    string `json:"name"`
	Prefix  string `json:"prefix,omitempty"`
	URI     string `json:"uri,omitempty"`
	Value   string `json:"value"`
	RawType uint32 `json:"raw_type"`
}

// QualifiedName 带前缀的属性名
func (a *Attr) QualifiedName() string {
	if a.Prefix != "" {
		return a.Prefix + ":" + a.Name
	}
	return a.Name
}

// Node 解码后的 XML 节点
// 父节点独占持有子节点 (树结构, 无共享)
type Node struct {
	Name       string          `json:"name"`
	Prefix     string          `json:"prefix,omitempty"`
	URI        string          `json:"uri,omitempty"`
	Attrs      []Attr          `json:"attrs,omitempty"`
	Children   []*Node         `json:"children,omitempty"`
	Text       string          `json:"text,omitempty"`
	Namespaces []NamespaceDecl `json:"namespaces,omitempty"`
}

// QualifiedName 带前缀的标签名
func (n *Node) QualifiedName() string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Name
	}
	return n.Name
}

// FindAttr 按属性名查找 (忽略命名空间), 未找到返回 nil
func (n *Node) FindAttr(name string) *Attr {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			return &n.Attrs[i]
		}
	}
	return nil
}

// Walk 深度优先遍历, fn 返回 false 时跳过该节点的子树
func (n *Node) Walk(fn func(node *Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Stats 单次解码的统计信息
// 未知 chunk 按兼容策略逐字跳过而不报错, 损坏的流可能静默失去同步,
// 这里暴露计数器供调用方和测试观测
type Stats struct {
	SkippedWords  int `json:"skipped_words"`  // 按未知 chunk 策略跳过的 32 位字数量
	TagMismatches int `json:"tag_mismatches"` // 结束标签与栈顶开始标签名不一致的次数
}

// Document 一次解码调用的结果, 仅在该次调用的生命周期内有意义
type Document struct {
	Root  *Node `json:"root"`
	Stats Stats `json:"stats"`
}

// XML 序列化为带缩进的 XML 文本
// 每层缩进一个制表符, 命名空间声明在首次绑定的节点上输出, 无子节点的标签自闭合
func (d *Document) XML() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	if d.Root != nil {
		writeNode(&b, d.Root, 0)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)

	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.QualifiedName())

	for _, ns := range n.Namespaces {
		b.WriteByte(' ')
		if ns.Prefix != "" {
			b.WriteString("xmlns:")
			b.WriteString(ns.Prefix)
		} else {
			b.WriteString("xmlns")
		}
		b.WriteString("=\"")
		b.WriteString(escapeXML(ns.URI))
		b.WriteByte('"')
	}

	for i := range n.Attrs {
		attr := &n.Attrs[i]
		b.WriteByte(' ')
		b.WriteString(attr.QualifiedName())
		b.WriteString("=\"")
		b.WriteString(escapeXML(attr.Value))
		b.WriteByte('"')
	}

	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString(" />\n")
		return
	}

	b.WriteString(">\n")
	if n.Text != "" {
		b.WriteString(strings.Repeat("\t", depth+1))
		b.WriteString(escapeXML(n.Text))
		b.WriteByte('\n')
	}
	for _, child := range n.Children {
		writeNode(b, child, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(n.QualifiedName())
	b.WriteString(">\n")
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
)

func escapeXML(s string) string {
	if !strings.ContainsAny(s, "&<>\"") {
		return s
	}
	return xmlEscaper.Replace(s)
}
