// Package ws 任务进度的 WebSocket 推送
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/domain"
)

// ProgressMessage 推送给客户端的进度消息
type ProgressMessage struct {
	TaskID    string `json:"task_id"`
	Stage     string `json:"stage"`
	Progress  int    `json:"progress"`
	Timestamp int64  `json:"timestamp"`
}

// Hub 进度推送中心
// 按 task_id 分组维护客户端连接, 广播非阻塞: 通道满时直接丢弃消息,
// 分析流程不会被慢客户端拖住
type Hub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]bool

	broadcast chan ProgressMessage
}

// NewHub 创建推送中心
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源（生产环境需要限制）
			},
		},
		clients:   make(map[string]map[*websocket.Conn]bool),
		broadcast: make(chan ProgressMessage, 256),
	}
}

// Start 启动广播循环
func (h *Hub) Start() {
	go h.run()
}

func (h *Hub) run() {
	for msg := range h.broadcast {
		h.deliver(msg)
	}
}

func (h *Hub) deliver(msg ProgressMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[msg.TaskID]))
	for conn := range h.clients[msg.TaskID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.WithError(err).WithField("task_id", msg.TaskID).Warn("Failed to write to WebSocket client")
			conn.Close()
			h.remove(msg.TaskID, conn)
		}
	}
}

// BroadcastProgress 广播任务进度, 通道满时丢弃
func (h *Hub) BroadcastProgress(taskID string, stage domain.TaskStage, percent int) {
	msg := ProgressMessage{
		TaskID:    taskID,
		Stage:     string(stage),
		Progress:  percent,
		Timestamp: time.Now().Unix(),
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.WithField("task_id", taskID).Warn("Broadcast channel is full, dropping message")
	}
}

// HandleWebSocket 升级连接并订阅指定任务的进度
func (h *Hub) HandleWebSocket(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close()

	h.add(taskID, conn)
	h.logger.WithField("task_id", taskID).Info("WebSocket client connected")

	// 保持连接直到客户端断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Warn("WebSocket error")
			}
			break
		}
	}

	h.remove(taskID, conn)
	h.logger.WithField("task_id", taskID).Info("WebSocket client disconnected")
}

func (h *Hub) add(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[taskID] == nil {
		h.clients[taskID] = make(map[*websocket.Conn]bool)
	}
	h.clients[taskID][conn] = true
}

func (h *Hub) remove(taskID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[taskID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, taskID)
		}
	}
}

// ClientCount 指定任务当前的订阅连接数
func (h *Hub) ClientCount(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[taskID])
}
