package sms

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"OldunMu/pkg/logger"
)

// MockClient 开发环境使用的假客户端，只记录不真正发送
type MockClient struct {
	mu    sync.Mutex
	Sent  []MockRecord
}

// MockRecord 单次模拟发送的记录
type MockRecord struct {
	Phone         string
	SignName      string
	TemplateCode  string
	TemplateParam string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, MockRecord{
		Phone:         phone,
		SignName:      signName,
		TemplateCode:  templateCode,
		TemplateParam: templateParam,
	})

	logger.Logger.Info("Mock SMS sent",
		zap.String("phone", phone),
		zap.String("template", templateCode),
	)
	return nil
}

func (m *MockClient) SendBatch(ctx context.Context, phones []string, signName, templateCode string, templateParams []string) error {
	for i, phone := range phones {
		param := ""
		if i < len(templateParams) {
			param = templateParams[i]
		}
		if err := m.SendSingle(ctx, phone, signName, templateCode, param); err != nil {
			return err
		}
	}
	return nil
}
