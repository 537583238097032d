package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// 任务类型
const (
	TaskMonitor = "monitor"
	TaskExport  = "export"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// TaskMessage worker 任务消息
// monitor 任务只需 AnalysisID；export 任务额外携带导出参数
type TaskMessage struct {
	MessageID  string `json:"message_id"`
	Type       string `json:"type"`
	AnalysisID int64  `json:"analysis_id"`
	UserID     int64  `json:"user_id"`
	Format     string `json:"format,omitempty"`
	SortKey    string `json:"sort_key,omitempty"`
	FilterText string `json:"filter_text,omitempty"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将任务加入队列
func (q *Queue) Push(ctx context.Context, msg *TaskMessage) error {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取任务（阻塞）
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*TaskMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，无任务
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg TaskMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
