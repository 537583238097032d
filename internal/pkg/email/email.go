package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jsinglet/mrva_go_server/config"
	"github.com/jsinglet/mrva_go_server/internal/model"
)

type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendAnalysisComplete 变体分析到达终态后发送通知邮件
func (s *Service) SendAnalysisComplete(to string, va *model.VariantAnalysis) error {
	var statusLine string
	switch va.Status {
	case model.StatusSucceeded:
		statusLine = "分析已完成"
	case model.StatusFailed:
		statusLine = fmt.Sprintf("分析失败（%s）", va.FailureReason)
	case model.StatusCanceled:
		statusLine = "分析已取消"
	default:
		statusLine = string(va.Status)
	}

	subject := fmt.Sprintf("变体分析 #%d %s - %s", va.ID, statusLine, va.QueryName)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2563eb;">变体分析通知</h2>
        <p>您好，</p>
        <p>查询 <strong>%s</strong>（%s）针对 %d 个仓库的变体分析%s。</p>
        <p>您可以登录平台查看各仓库的结果并导出报告。</p>
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">此邮件由系统自动发送，请勿回复。</p>
    </div>
</body>
</html>`, va.QueryName, va.QueryLanguage, len(va.Repos), statusLine)

	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		return nil // 未配置邮件服务，跳过
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	headers := []string{
		fmt.Sprintf("From: %s", s.cfg.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
