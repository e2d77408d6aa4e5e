package axml

import "strings"

// 字符串池编码标志 (池头部 flags 字段)
const flagUTF8 = 0x00000100

// StringPool 解码后的字符串池
// 文档中所有名称/值都通过整数索引引用这里的条目
type StringPool struct {
	entries []string
	utf8    bool
}

// Count 池中字符串个数
func (p *StringPool) Count() int {
	return len(p.entries)
}

// IsUTF8 池是否为 UTF-8 编码
func (p *StringPool) IsUTF8() bool {
	return p.utf8
}

// Get 按索引取字符串, 索引必须落在 [0, count) 内
func (p *StringPool) Get(index uint32) (string, error) {
	if int(index) >= len(p.entries) {
		return "", indexError(0, index)
	}
	return p.entries[index], nil
}

// parseStringPool 解析字符串池 chunk
// data 为整个文档缓冲区, chunkStart 指向 chunk 类型字 (0x001C0001) 的起始位置
// 头部布局: type(4) size(4) stringCount(4) styleCount(4) flags(4) stringsStart(4) stylesStart(4)
// 之后是 stringCount 个偏移字, 字符串数据位于 chunkStart+stringsStart
func parseStringPool(data []byte, chunkStart int) (*StringPool, int, error) {
	r := &reader{data: data, off: chunkStart + 4}

	chunkSize, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	stringCount, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	if _, err := r.u32(); err != nil { // styleCount, 样式池不解析
		return nil, 0, err
	}
	flags, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	stringsStart, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	if _, err := r.u32(); err != nil { // stylesStart
		return nil, 0, err
	}

	// 防御异常的 stringCount, 避免按损坏数据分配超大切片
	if int64(stringCount) > int64(len(data)) {
		return nil, 0, eobError(r.off)
	}

	offsets := make([]uint32, 0, stringCount)
	for i := uint32(0); i < stringCount; i++ {
		off, err := r.u32()
		if err != nil {
			return nil, 0, err
		}
		offsets = append(offsets, off)
	}

	pool := &StringPool{
		entries: make([]string, 0, stringCount),
		utf8:    flags&flagUTF8 != 0,
	}

	base := chunkStart + int(stringsStart)
	for _, off := range offsets {
		s, err := decodeEntry(data, base+int(off), pool.utf8)
		if err != nil {
			return nil, 0, err
		}
		pool.entries = append(pool.entries, s)
	}

	end := chunkStart + int(chunkSize)
	if end > len(data) || end < chunkStart {
		return nil, 0, eobError(chunkStart)
	}
	return pool, end, nil
}

// decodeEntry 解码单个字符串条目
// UTF-8: 单字节长度前缀 + 对应字节数 (长度上限 255, 与双字节长度变体不兼容)
// UTF-16: 双字节码元数量 + 对应的 16 位码元, 码元直接映射为字符,
// 不做代理对合并 (BMP 之外的字符无法正确还原, 已知限制)
func decodeEntry(data []byte, off int, utf8 bool) (string, error) {
	if utf8 {
		if off < 0 || off >= len(data) {
			return "", eobError(off)
		}
		length := int(data[off])
		start := off + 1
		if start+length > len(data) {
			return "", eobError(start)
		}
		return string(data[start : start+length]), nil
	}

	if off < 0 || off+2 > len(data) {
		return "", eobError(off)
	}
	units := int(uint16(data[off]) | uint16(data[off+1])<<8)
	start := off + 2
	if start+units*2 > len(data) {
		return "", eobError(start)
	}

	var b strings.Builder
	b.Grow(units)
	for i := 0; i < units; i++ {
		u := uint16(data[start+i*2]) | uint16(data[start+i*2+1])<<8
		b.WriteRune(rune(u))
	}
	return b.String(), nil
}
