package axml

import (
	"fmt"
	"math"
	"strconv"
)

// 属性类型标签 (类型字的高字节)
const (
	TypeNull       = 0x00
	TypeReference  = 0x01
	TypeAttribute  = 0x02
	TypeString     = 0x03
	TypeFloat      = 0x04
	TypeDimension  = 0x05
	TypeFraction   = 0x06
	TypeIntDec     = 0x10
	TypeIntHex     = 0x11
	TypeIntBool    = 0x12
	TypeColorARGB8 = 0x1C
	TypeColorRGB8  = 0x1D
)

// 尺寸单位表, 由负载低字节索引
var dimensionUnits = [...]string{"px", "dp", "sp", "pt", "in", "mm"}

// renderValue 按类型标签渲染属性负载为文本
// 未识别的类型渲染为 "类型十六进制/值十六进制" 占位, 而不是中断整个解码
// (未收录的属性类型必须优雅降级)
func renderValue(typeWord, data, rawIndex uint32, lookup func(uint32) (string, error)) (string, error) {
	switch typeWord >> 24 {
	case TypeString:
		return lookup(rawIndex)
	case TypeIntDec:
		return strconv.FormatInt(int64(int32(data)), 10), nil
	case TypeIntHex:
		return fmt.Sprintf("0x%X", data), nil
	case TypeIntBool:
		if data != 0 {
			return "true", nil
		}
		return "false", nil
	case TypeFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(data)), 'g', -1, 32), nil
	case TypeReference:
		return fmt.Sprintf("@%08X", data), nil
	case TypeAttribute:
		return fmt.Sprintf("?%08X", data), nil
	case TypeDimension:
		unit := int(data & 0xFF)
		if unit < len(dimensionUnits) {
			return fmt.Sprintf("%d%s", data>>8, dimensionUnits[unit]), nil
		}
		return fmt.Sprintf("%X/%X", typeWord>>24, data), nil
	case TypeFraction:
		return fmt.Sprintf("%.2f", float64(int32(data))/float64(math.MaxInt32)), nil
	case TypeColorARGB8, TypeColorRGB8:
		return fmt.Sprintf("#%08X", data), nil
	case TypeNull:
		return "", nil
	default:
		return fmt.Sprintf("%X/%X", typeWord>>24, data), nil
	}
}
