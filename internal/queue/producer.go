package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalyzeMessage 分析任务消息
type AnalyzeMessage struct {
	TaskID    string    `json:"task_id"`
	APKName   string    `json:"apk_name"`
	APKPath   string    `json:"apk_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Producer 任务消息生产者
type Producer struct {
	mq     *RabbitMQ
	logger *logrus.Logger
}

// NewProducer 创建生产者
func NewProducer(mq *RabbitMQ, logger *logrus.Logger) *Producer {
	return &Producer{mq: mq, logger: logger}
}

// PublishTask 发布分析任务
func (p *Producer) PublishTask(ctx context.Context, msg *AnalyzeMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal analyze message: %w", err)
	}

	if err := p.mq.Publish(ctx, body); err != nil {
		return fmt.Errorf("failed to publish analyze message: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"task_id":  msg.TaskID,
		"apk_name": msg.APKName,
	}).Info("Analyze task published")
	return nil
}

// QueueSize 当前队列积压的消息数
func (p *Producer) QueueSize() (int, error) {
	messages, _, err := p.mq.QueueStats()
	return messages, err
}
