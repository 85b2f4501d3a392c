package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"OldunMu/config"
	"OldunMu/pkg/logger"
)

// SMTPClient 基于标准库 net/smtp 的实现，STARTTLS 由 SendMail 协商
type SMTPClient struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewSMTPClient() *SMTPClient {
	cfg := config.Cfg
	return &SMTPClient{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
	}
}

func (c *SMTPClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := c.host + ":" + c.port
	auth := smtp.PlainAuth("", c.user, c.password, c.host)

	var sb strings.Builder
	sb.WriteString("From: " + c.from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, c.user, []string{to}, []byte(sb.String()))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			logger.Logger.Error("Failed to send email",
				zap.String("to", to),
				zap.Error(err),
			)
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	logger.Logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
