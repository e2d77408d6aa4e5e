// Package worker 分析任务的执行层: worker 池与编排器
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool Worker 池, channel 喂任务
type Pool struct {
	workers      int
	taskChan     chan *Task
	orchestrator *Orchestrator
	logger       *logrus.Logger
	wg           sync.WaitGroup
}

// Task 池内任务
type Task struct {
	ID       string
	APKPath  string
	resultCh chan error // 同步等待任务完成时使用
}

// NewPool 创建 Worker 池
func NewPool(workers int, queueSize int, orchestrator *Orchestrator, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Pool{
		workers:      workers,
		taskChan:     make(chan *Task, queueSize),
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start 启动 Worker 池
func (p *Pool) Start(ctx context.Context) {
	p.logger.WithField("workers", p.workers).Info("Starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("worker_id", id).Info("Worker shutting down")
			return

		case task, ok := <-p.taskChan:
			if !ok {
				return
			}

			log := p.logger.WithFields(logrus.Fields{
				"worker_id": id,
				"task_id":   task.ID,
			})
			log.Info("Processing task")

			err := p.orchestrator.ExecuteTask(ctx, task.ID, task.APKPath)
			if err != nil {
				log.WithError(err).Error("Task execution failed")
			} else {
				log.Info("Task completed")
			}

			if task.resultCh != nil {
				task.resultCh <- err
				close(task.resultCh)
			}
		}
	}
}

// Submit 异步提交任务, 队列满时返回错误
func (p *Pool) Submit(task *Task) error {
	select {
	case p.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// SubmitAndWait 提交任务并等待完成
func (p *Pool) SubmitAndWait(ctx context.Context, task *Task) error {
	task.resultCh = make(chan error, 1)

	select {
	case p.taskChan <- task:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-task.resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 停止 Worker 池, 等待在途任务结束
func (p *Pool) Stop() {
	close(p.taskChan)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// QueueSize 队列中等待的任务数
func (p *Pool) QueueSize() int {
	return len(p.taskChan)
}
