package export

import (
	"errors"
)

// ErrAnalysisNotFound 导出目标不存在，面向用户的错误
var ErrAnalysisNotFound = errors.New("变体分析不存在")

// CancellationError 协作式取消信号
// Silent 为 true 表示静默取消（不向用户展示消息、不计入错误日志）
type CancellationError struct {
	Silent bool
}

func (e *CancellationError) Error() string {
	if e.Silent {
		return "export canceled (silent)"
	}
	return "export canceled by user"
}

// IsCancellation 判断错误是否为取消信号
func IsCancellation(err error) bool {
	var ce *CancellationError
	return errors.As(err, &ce)
}
