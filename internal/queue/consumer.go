package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AnalyzeHandler 分析任务处理函数
type AnalyzeHandler func(ctx context.Context, msg *AnalyzeMessage) error

// Consumer 消息消费者, 多个 worker goroutine 共享同一消费通道
type Consumer struct {
	mq            *RabbitMQ
	logger        *logrus.Logger
	handler       AnalyzeHandler
	workerPool    int
	workerWg      sync.WaitGroup
	activeWorkers int32

	mu         sync.Mutex
	running    bool
	cancelFunc context.CancelFunc
}

// NewConsumer 创建消费者
func NewConsumer(mq *RabbitMQ, handler AnalyzeHandler, workerPool int, logger *logrus.Logger) *Consumer {
	if workerPool <= 0 {
		workerPool = 1
	}
	return &Consumer{
		mq:         mq,
		logger:     logger,
		handler:    handler,
		workerPool: workerPool,
	}
}

// Start 启动消费
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Warn("Consumer already running, skipping start")
		return nil
	}
	c.running = true
	c.mu.Unlock()

	msgs, err := c.mq.Consume()
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()

	for i := 0; i < c.workerPool; i++ {
		c.workerWg.Add(1)
		go c.worker(workerCtx, i, msgs)
	}
	c.logger.WithField("workers", c.workerPool).Info("Consumer started")

	c.mq.StartConnectionWatcher()
	go c.handleReconnect(ctx)
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.workerWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-msgs:
			if !ok {
				c.logger.WithField("worker_id", id).Warn("Delivery channel closed")
				return
			}
			c.processMessage(ctx, id, delivery)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, workerID int, delivery amqp.Delivery) {
	atomic.AddInt32(&c.activeWorkers, 1)
	defer atomic.AddInt32(&c.activeWorkers, -1)

	var msg AnalyzeMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		c.logger.WithError(err).Error("Failed to unmarshal analyze message, dropping")
		delivery.Nack(false, false) // 不重回队列, 消息本身已损坏
		return
	}

	log := c.logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"task_id":   msg.TaskID,
		"apk_name":  msg.APKName,
	})
	log.Info("Processing analyze task")

	if err := c.handler(ctx, &msg); err != nil {
		log.WithError(err).Error("Analyze task failed")
		// 任务级失败已落库, 不重回队列避免无限重试
		delivery.Nack(false, false)
		return
	}

	delivery.Ack(false)
	log.Info("Analyze task acknowledged")
}

// handleReconnect 重连后重建消费通道与 worker
func (c *Consumer) handleReconnect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-c.mq.ReconnectChan():
			if !ok {
				return
			}
			c.logger.Info("Restarting consumer after reconnect")
			c.stopWorkers()
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			if err := c.Start(ctx); err != nil {
				c.logger.WithError(err).Error("Failed to restart consumer")
			}
			return
		}
	}
}

func (c *Consumer) stopWorkers() {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.workerWg.Wait()
}

// Stop 停止消费
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.stopWorkers()
	c.logger.Info("Consumer stopped")
}

// ActiveWorkers 正在处理消息的 worker 数
func (c *Consumer) ActiveWorkers() int {
	return int(atomic.LoadInt32(&c.activeWorkers))
}
