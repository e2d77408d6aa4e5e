// Package retry 带退避的重试执行器
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Strategy 重试间隔策略
type Strategy string

const (
	StrategyFixed       Strategy = "fixed"       // 固定间隔
	StrategyExponential Strategy = "exponential" // 指数退避
)

// Config 重试配置
type Config struct {
	MaxAttempts     int           // 最大尝试次数
	InitialInterval time.Duration // 初始间隔
	MaxInterval     time.Duration // 间隔上限
	Strategy        Strategy
	Logger          *logrus.Logger
}

// DefaultConfig 默认指数退避配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Strategy:        StrategyExponential,
	}
}

// permanentError 标记不可重试的错误
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent 包装错误为不可重试, Do 遇到后立即放弃
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Func 可重试的操作
type Func func(ctx context.Context) error

// Do 执行操作, 失败后按策略退避重试
// context 取消、Permanent 包装的错误不重试
func Do(ctx context.Context, config *Config, fn Func) error {
	if config == nil {
		config = DefaultConfig()
	}

	var lastErr error
	interval := config.InitialInterval

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if attempt == config.MaxAttempts {
			break
		}

		if config.Logger != nil {
			config.Logger.WithError(lastErr).WithFields(logrus.Fields{
				"attempt":  attempt,
				"interval": interval,
			}).Warn("Operation failed, retrying")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		if config.Strategy == StrategyExponential {
			interval *= 2
			if config.MaxInterval > 0 && interval > config.MaxInterval {
				interval = config.MaxInterval
			}
		}
	}
	return lastErr
}
