package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

const (
	ChannelAnalysisUpdates = "variant_analysis_updates"
)

// 消息类型
const (
	TypeAnalysisUpdated = "analysis_updated"
	TypeExportProgress  = "export_progress"
)

// 导出进度固定两步，与仓库数量无关
const (
	StepDeterminingFormat = "determining_format"
	StepGenerating        = "generating"
)

// 阶段对应的进度百分比
var StepProgress = map[string]int{
	StepDeterminingFormat: 50,
	StepGenerating:        100,
}

// 阶段对应的消息
var StepMessages = map[string]string{
	StepDeterminingFormat: "正在确定导出格式",
	StepGenerating:        "正在生成并写出报告",
}

// UpdateMessage 变更事件消息
// analysis_updated 携带完整的合并后任务状态；export_progress 携带两步进度
type UpdateMessage struct {
	Type       string                 `json:"type"`
	UserID     int64                  `json:"user_id"`
	AnalysisID int64                  `json:"analysis_id"`
	Analysis   *model.VariantAnalysis `json:"analysis,omitempty"`
	Step       string                 `json:"step,omitempty"`
	Progress   int                    `json:"progress,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishAnalysisUpdate 发布任务变更事件，携带完整任务状态
func (p *Publisher) PublishAnalysisUpdate(ctx context.Context, userID int64, va *model.VariantAnalysis) error {
	msg := &UpdateMessage{
		Type:       TypeAnalysisUpdated,
		UserID:     userID,
		AnalysisID: va.ID,
		Analysis:   va,
	}
	return p.publish(ctx, msg)
}

// PublishExportProgress 发布导出进度
func (p *Publisher) PublishExportProgress(ctx context.Context, userID, analysisID int64, step, errMsg string) error {
	msg := &UpdateMessage{
		Type:       TypeExportProgress,
		UserID:     userID,
		AnalysisID: analysisID,
		Step:       step,
		Error:      errMsg,
	}
	if progress, ok := StepProgress[step]; ok {
		msg.Progress = progress
	}
	if message, ok := StepMessages[step]; ok {
		msg.Message = message
	}
	return p.publish(ctx, msg)
}

func (p *Publisher) publish(ctx context.Context, msg *UpdateMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal update message: %w", err)
	}

	return p.client.Publish(ctx, ChannelAnalysisUpdates, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅变更事件
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*UpdateMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelAnalysisUpdates)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var update UpdateMessage
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue // 忽略解析错误
			}

			handler(&update)
		}
	}
}
