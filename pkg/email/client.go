package email

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"OldunMu/config"
	"OldunMu/pkg/logger"
)

// Client 邮件客户端接口
type Client interface {
	// Send 发送一封 HTML 邮件
	Send(ctx context.Context, to, subject, htmlBody string) error
}

var (
	emailClient Client
	emailOnce   sync.Once
)

// Init 初始化邮件客户端
// SMTP 凭据缺失时退化为 mock，告警邮件只记录不发送
func Init() error {
	emailOnce.Do(func() {
		cfg := config.Cfg

		if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
			emailClient = NewMockClient()
			logger.Logger.Warn("SMTP credentials not configured, using mock email client")
			return
		}

		emailClient = NewSMTPClient()
		logger.Logger.Info("Email client initialized",
			zap.String("host", cfg.SMTPHost),
		)
	})

	return nil
}

func GetClient() Client {
	if emailClient == nil {
		panic("Email client not initialized, call email.Init() first")
	}
	return emailClient
}

func Send(ctx context.Context, to, subject, htmlBody string) error {
	return GetClient().Send(ctx, to, subject, htmlBody)
}
