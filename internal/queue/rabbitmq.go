// Package queue 基于 RabbitMQ 的分析任务队列
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitMQConfig RabbitMQ 连接配置
type RabbitMQConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	VHost     string
	Heartbeat time.Duration // 心跳间隔, 默认 10 秒
}

// RabbitMQ RabbitMQ 客户端
// 队列声明为持久化; prefetch 应与 worker 并发数一致以实现并行消费
type RabbitMQ struct {
	config        *RabbitMQConfig
	logger        *logrus.Logger
	queueName     string
	prefetchCount int

	mu            sync.RWMutex
	conn          *amqp.Connection
	channel       *amqp.Channel
	closed        bool
	reconnect     chan struct{}
	connNotify    chan *amqp.Error
	channelNotify chan *amqp.Error
}

// NewRabbitMQ 创建客户端并建立连接
func NewRabbitMQ(config *RabbitMQConfig, queueName string, prefetchCount int, logger *logrus.Logger) (*RabbitMQ, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	if config.Heartbeat == 0 {
		config.Heartbeat = 10 * time.Second
	}

	mq := &RabbitMQ{
		config:        config,
		logger:        logger,
		queueName:     queueName,
		prefetchCount: prefetchCount,
		reconnect:     make(chan struct{}, 8),
	}

	if err := mq.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return mq, nil
}

// connect 建立连接、打开 channel、声明持久化队列
func (mq *RabbitMQ) connect() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		mq.config.User,
		mq.config.Password,
		mq.config.Host,
		mq.config.Port,
		mq.config.VHost,
	)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: mq.config.Heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	mq.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	mq.channel = ch

	if err := ch.Qos(mq.prefetchCount, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	_, err = ch.QueueDeclare(
		mq.queueName, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	mq.connNotify = make(chan *amqp.Error, 1)
	mq.channelNotify = make(chan *amqp.Error, 1)
	mq.conn.NotifyClose(mq.connNotify)
	mq.channel.NotifyClose(mq.channelNotify)

	mq.logger.WithFields(logrus.Fields{
		"host":           mq.config.Host,
		"queue":          mq.queueName,
		"prefetch_count": mq.prefetchCount,
	}).Info("Connected to RabbitMQ")
	return nil
}

// StartConnectionWatcher 监听连接/信道关闭事件并触发重连
func (mq *RabbitMQ) StartConnectionWatcher() {
	go func() {
		for {
			mq.mu.RLock()
			closed := mq.closed
			connNotify := mq.connNotify
			channelNotify := mq.channelNotify
			mq.mu.RUnlock()
			if closed {
				return
			}

			select {
			case err, ok := <-connNotify:
				if !ok {
					return
				}
				mq.logger.WithError(err).Warn("RabbitMQ connection closed, scheduling reconnect")
			case err, ok := <-channelNotify:
				if !ok {
					return
				}
				mq.logger.WithError(err).Warn("RabbitMQ channel closed, scheduling reconnect")
			}

			if mq.Reconnect() == nil {
				select {
				case mq.reconnect <- struct{}{}:
				default:
				}
			}
		}
	}()
}

// Reconnect 指数退避重连
func (mq *RabbitMQ) Reconnect() error {
	backoff := time.Second
	for attempt := 1; attempt <= 10; attempt++ {
		mq.mu.RLock()
		closed := mq.closed
		mq.mu.RUnlock()
		if closed {
			return fmt.Errorf("client closed")
		}

		if err := mq.connect(); err != nil {
			mq.logger.WithError(err).WithField("attempt", attempt).Warn("RabbitMQ reconnect failed")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		mq.logger.Info("RabbitMQ reconnected")
		return nil
	}
	return fmt.Errorf("reconnect attempts exhausted")
}

// ReconnectChan 重连成功通知, 消费者据此重建 Consume 通道
func (mq *RabbitMQ) ReconnectChan() <-chan struct{} {
	return mq.reconnect
}

// Publish 发布一条持久化消息
func (mq *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	mq.mu.RLock()
	ch := mq.channel
	mq.mu.RUnlock()
	if ch == nil {
		return fmt.Errorf("channel not available")
	}

	return ch.PublishWithContext(ctx,
		"",           // exchange
		mq.queueName, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

// Consume 打开消费通道, 手动 ack
func (mq *RabbitMQ) Consume() (<-chan amqp.Delivery, error) {
	mq.mu.RLock()
	ch := mq.channel
	mq.mu.RUnlock()
	if ch == nil {
		return nil, fmt.Errorf("channel not available")
	}

	return ch.Consume(
		mq.queueName, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
}

// QueueStats 队列消息数与消费者数
func (mq *RabbitMQ) QueueStats() (messageCount, consumerCount int, err error) {
	mq.mu.RLock()
	ch := mq.channel
	mq.mu.RUnlock()
	if ch == nil {
		return 0, 0, fmt.Errorf("channel not available")
	}

	q, err := ch.QueueInspect(mq.queueName)
	if err != nil {
		return 0, 0, err
	}
	return q.Messages, q.Consumers, nil
}

// IsConnected 连接是否可用
func (mq *RabbitMQ) IsConnected() bool {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return mq.conn != nil && !mq.conn.IsClosed()
}

// Close 关闭连接
func (mq *RabbitMQ) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	mq.closed = true
	if mq.channel != nil {
		mq.channel.Close()
	}
	if mq.conn != nil {
		return mq.conn.Close()
	}
	return nil
}
