package axml

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEOB 读取位置超出缓冲区末尾
	ErrUnexpectedEOB = errors.New("unexpected end of buffer")

	// ErrStringIndex 字符串池索引越界
	ErrStringIndex = errors.New("string index out of range")
)

// DecodeError 解码失败错误
// 只有两类致命错误: 缓冲区越界 (ErrUnexpectedEOB) 和字符串索引越界 (ErrStringIndex)
// 其他异常情况 (未知 chunk、未知属性类型) 按兼容策略吸收, 不会产生错误
type DecodeError struct {
	Offset int   // 出错时的解码偏移
	Err    error // ErrUnexpectedEOB 或 ErrStringIndex
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("axml: decode failed at offset 0x%X: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// eobError 构造缓冲区越界错误
func eobError(offset int) error {
	return &DecodeError{Offset: offset, Err: ErrUnexpectedEOB}
}

// indexError 构造字符串索引越界错误
func indexError(offset int, index uint32) error {
	return &DecodeError{Offset: offset, Err: fmt.Errorf("%w: %d", ErrStringIndex, index)}
}
