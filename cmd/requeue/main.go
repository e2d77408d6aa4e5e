// 重新入队命令: 把指定状态的任务重新发布到 RabbitMQ
// 服务异常后用于手动恢复, 默认只处理 failed 任务
//
//	requeue -config ./configs/config.yaml -status failed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/apk-analysis/libdetect-go/internal/config"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/queue"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	status := flag.String("status", "failed", "要重新入队的任务状态 (failed, queued)")
	flag.Parse()

	if *status != string(domain.TaskStatusFailed) && *status != string(domain.TaskStatusQueued) {
		log.Fatalf("Unsupported status: %s", *status)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.InitLogger(&cfg.Log)

	db, err := repository.InitDB(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	mqConfig := &queue.RabbitMQConfig{
		Host:     cfg.RabbitMQ.Host,
		Port:     cfg.RabbitMQ.Port,
		User:     cfg.RabbitMQ.User,
		Password: cfg.RabbitMQ.Password,
		VHost:    cfg.RabbitMQ.VHost,
	}
	mq, err := queue.NewRabbitMQ(mqConfig, cfg.RabbitMQ.Queue, 1, logger)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mq.Close()

	producer := queue.NewProducer(mq, logger)

	var tasks []domain.Task
	if err := db.Where("status = ?", *status).Order("created_at ASC").Find(&tasks).Error; err != nil {
		log.Fatalf("Failed to query tasks: %v", err)
	}
	fmt.Printf("Found %d %s tasks\n", len(tasks), *status)

	ctx := context.Background()
	success := 0
	for _, task := range tasks {
		msg := &queue.AnalyzeMessage{
			TaskID:    task.ID,
			APKName:   task.APKName,
			APKPath:   task.APKPath,
			CreatedAt: task.CreatedAt,
		}
		if err := producer.PublishTask(ctx, msg); err != nil {
			fmt.Printf("  %s: publish failed: %v\n", task.ID, err)
			continue
		}

		// 重新入队后状态回到 queued, 等待 worker 领取
		if task.Status != domain.TaskStatusQueued {
			if err := db.Model(&domain.Task{}).Where("id = ?", task.ID).
				Updates(map[string]interface{}{
					"status":        domain.TaskStatusQueued,
					"error_message": "",
					"progress":      0,
				}).Error; err != nil {
				fmt.Printf("  %s: status reset failed: %v\n", task.ID, err)
				continue
			}
		}
		success++
	}

	fmt.Printf("Requeued %d/%d tasks\n", success, len(tasks))
}
