// Package axml 实现 Android 二进制 XML (AXML) 的解码
// 输入为完整的二进制清单缓冲区, 输出为节点树与可序列化的 XML 文本
package axml

import "encoding/binary"

// chunk 类型字 (小端 32 位)
const (
	chunkDocument    = 0x00080003 // 文档头, 其后跟随文件总长度字
	chunkStringPool  = 0x001C0001 // 字符串池, 带显式大小
	chunkResourceMap = 0x00080180 // 资源映射表, 带显式大小, 整块跳过
	chunkNsStart     = 0x00100100 // 命名空间开始
	chunkNsEnd       = 0x00100101 // 命名空间结束
	chunkTagStart    = 0x00100102 // 开始标签
	chunkTagEnd      = 0x00100103 // 结束标签
	chunkText        = 0x00100104 // 文本
)

// 属性原始值缺省时的索引哨兵
const noIndex = 0xFFFFFFFF

// reader 单调前进的缓冲区游标, 所有读取都做边界检查
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, eobError(r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

type decoder struct {
	r     reader
	pool  *StringPool
	root  *Node
	stack []*Node

	// 每个 URI 维护一个前缀栈; 同一 URI 重复绑定时后写者生效
	nsPrefixes map[string][]string
	// 自上一个开始标签以来收集的命名空间声明, 挂到下一个开始的节点上
	pendingNS []NamespaceDecl

	stats Stats
}

// Decode 解码一份二进制 XML 文档
// 失败时返回 *DecodeError, 包装 ErrUnexpectedEOB 或 ErrStringIndex 之一
func Decode(data []byte) (*Document, error) {
	d := &decoder{
		r:          reader{data: data},
		nsPrefixes: make(map[string][]string),
	}
	if err := d.run(); err != nil {
		return nil, err
	}
	return &Document{Root: d.root, Stats: d.stats}, nil
}

func (d *decoder) run() error {
	// 游标自然到达缓冲区末尾即为流结束; 剩余不足一个字的尾巴视为越界
	for d.r.remaining() >= 4 {
		chunkStart := d.r.off
		word, err := d.r.u32()
		if err != nil {
			return err
		}

		switch word {
		case chunkDocument:
			// 文档头后跟文件总长度字, 读出后不做校验
			if _, err := d.r.u32(); err != nil {
				return err
			}
		case chunkStringPool:
			pool, end, err := parseStringPool(d.r.data, chunkStart)
			if err != nil {
				return err
			}
			d.pool = pool
			d.r.off = end
		case chunkResourceMap:
			if err := d.skipChunk(chunkStart); err != nil {
				return err
			}
		case chunkNsStart:
			if err := d.parseNsStart(); err != nil {
				return err
			}
		case chunkNsEnd:
			if err := d.parseNsEnd(); err != nil {
				return err
			}
		case chunkTagStart:
			if err := d.parseTagStart(); err != nil {
				return err
			}
		case chunkTagEnd:
			if err := d.parseTagEnd(); err != nil {
				return err
			}
		case chunkText:
			if err := d.parseText(); err != nil {
				return err
			}
		default:
			// 未知 chunk: 前向兼容策略, 一次只跳过一个字并计数
			d.stats.SkippedWords++
		}
	}
	if d.r.remaining() != 0 {
		return eobError(d.r.off)
	}
	return nil
}

// skipChunk 按头部的显式大小跳过整个 chunk (类型字已读)
func (d *decoder) skipChunk(chunkStart int) error {
	size, err := d.r.u32()
	if err != nil {
		return err
	}
	end := chunkStart + int(size)
	if end > len(d.r.data) || end < d.r.off {
		return eobError(chunkStart)
	}
	d.r.off = end
	return nil
}

// str 按索引解析字符串, noIndex 哨兵表示无值
func (d *decoder) str(index uint32) (string, error) {
	if index == noIndex {
		return "", nil
	}
	if d.pool == nil || int(index) >= d.pool.Count() {
		return "", indexError(d.r.off, index)
	}
	return d.pool.Get(index)
}

// parseNsStart 解析命名空间开始 chunk
// 类型字之后: size line unknown prefixIdx uriIdx
func (d *decoder) parseNsStart() error {
	var words [5]uint32
	for i := range words {
		v, err := d.r.u32()
		if err != nil {
			return err
		}
		words[i] = v
	}
	prefix, err := d.str(words[3])
	if err != nil {
		return err
	}
	uri, err := d.str(words[4])
	if err != nil {
		return err
	}
	d.nsPrefixes[uri] = append(d.nsPrefixes[uri], prefix)
	d.pendingNS = append(d.pendingNS, NamespaceDecl{Prefix: prefix, URI: uri})
	return nil
}

// parseNsEnd 解析命名空间结束 chunk, 布局与开始 chunk 相同
func (d *decoder) parseNsEnd() error {
	var words [5]uint32
	for i := range words {
		v, err := d.r.u32()
		if err != nil {
			return err
		}
		words[i] = v
	}
	uri, err := d.str(words[4])
	if err != nil {
		return err
	}
	if stack := d.nsPrefixes[uri]; len(stack) > 0 {
		d.nsPrefixes[uri] = stack[:len(stack)-1]
	}
	return nil
}

// prefixFor 查 URI 当前绑定的前缀, 未绑定返回空串
func (d *decoder) prefixFor(uri string) string {
	if uri == "" {
		return ""
	}
	if stack := d.nsPrefixes[uri]; len(stack) > 0 {
		return stack[len(stack)-1]
	}
	return ""
}

// parseTagStart 解析开始标签 chunk
// 类型字之后 8 个头部字: size line unknown uriIdx nameIdx flags attrCount classAttr
// 随后是 attrCount 个属性, 每个 5 个字: ns name rawValue type data
func (d *decoder) parseTagStart() error {
	var words [8]uint32
	for i := range words {
		v, err := d.r.u32()
		if err != nil {
			return err
		}
		words[i] = v
	}

	uri, err := d.str(words[3])
	if err != nil {
		return err
	}
	name, err := d.str(words[4])
	if err != nil {
		return err
	}

	node := &Node{
		Name:       name,
		URI:        uri,
		Prefix:     d.prefixFor(uri),
		Namespaces: d.pendingNS,
	}
	d.pendingNS = nil

	// 属性个数取低 16 位, 高 16 位是 id 属性索引
	attrCount := int(words[6] & 0xFFFF)
	for i := 0; i < attrCount; i++ {
		var attr [5]uint32
		for j := range attr {
			v, err := d.r.u32()
			if err != nil {
				return err
			}
			attr[j] = v
		}

		attrURI, err := d.str(attr[0])
		if err != nil {
			return err
		}
		attrName, err := d.str(attr[1])
		if err != nil {
			return err
		}
		value, err := renderValue(attr[3], attr[4], attr[2], d.str)
		if err != nil {
			return err
		}

		node.Attrs = append(node.Attrs, Attr{
			Name:    attrName,
			Prefix:  d.prefixFor(attrURI),
			URI:     attrURI,
			Value:   value,
			RawType: attr[3],
		})
	}

	if len(d.stack) == 0 {
		if d.root == nil {
			d.root = node
		} else {
			// 根已关闭后又出现顶层标签, 挂回根下避免丢失
			d.root.Children = append(d.root.Children, node)
		}
	} else {
		parent := d.stack[len(d.stack)-1]
		parent.Children = append(parent.Children, node)
	}
	d.stack = append(d.stack, node)
	return nil
}

// parseTagEnd 解析结束标签 chunk
// 类型字之后: size line unknown uriIdx nameIdx
// 弹栈时不校验名称是否与栈顶一致, 仅计数不一致的次数
func (d *decoder) parseTagEnd() error {
	var words [5]uint32
	for i := range words {
		v, err := d.r.u32()
		if err != nil {
			return err
		}
		words[i] = v
	}
	name, err := d.str(words[4])
	if err != nil {
		return err
	}

	if len(d.stack) == 0 {
		d.stats.TagMismatches++
		return nil
	}
	top := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	if top.Name != name {
		d.stats.TagMismatches++
	}
	return nil
}

// parseText 解析文本 chunk
// 类型字之后: size line unknown strIdx 和两个保留字
func (d *decoder) parseText() error {
	var words [6]uint32
	for i := range words {
		v, err := d.r.u32()
		if err != nil {
			return err
		}
		words[i] = v
	}
	text, err := d.str(words[3])
	if err != nil {
		return err
	}
	if len(d.stack) > 0 {
		d.stack[len(d.stack)-1].Text += text
	}
	return nil
}
