package email

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"OldunMu/pkg/logger"
)

// MockClient 未配置 SMTP 时的替身，只记录不发送
type MockClient struct {
	mu   sync.Mutex
	Sent []MockMessage
}

// MockMessage 单封模拟邮件
type MockMessage struct {
	To      string
	Subject string
	Body    string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, MockMessage{To: to, Subject: subject, Body: htmlBody})

	logger.Logger.Info("Mock email sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
