package mq

// RabbitMQ 的 OpenTelemetry 插件：发布/消费埋点，追踪上下文随消息头跨进程透传

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("oldunmu/mq")

	// RabbitMQ 相关指标
	mqMessagesTotal   metric.Int64Counter
	mqPublishDuration metric.Float64Histogram
	mqPublishErrors   metric.Int64Counter
	mqConsumeErrors   metric.Int64Counter
)

// InitMQMetrics 初始化 RabbitMQ 指标，在 storage/mq 建立连接时调用
func InitMQMetrics() error {
	meter := otel.Meter("oldunmu/mq")

	var err error

	mqMessagesTotal, err = meter.Int64Counter(
		"mq.messages.total",
		metric.WithDescription("Total number of RabbitMQ messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return err
	}

	mqPublishDuration, err = meter.Float64Histogram(
		"mq.publish.duration",
		metric.WithDescription("RabbitMQ publish duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return err
	}

	mqPublishErrors, err = meter.Int64Counter(
		"mq.publish.errors",
		metric.WithDescription("Number of RabbitMQ publish errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mqConsumeErrors, err = meter.Int64Counter(
		"mq.consume.errors",
		metric.WithDescription("Number of RabbitMQ consume errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// MessageHeaderCarrier 让 amqp.Table 实现 propagation.TextMapCarrier
type MessageHeaderCarrier struct {
	Headers amqp.Table
}

func (m *MessageHeaderCarrier) Get(key string) string {
	if val, ok := m.Headers[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func (m *MessageHeaderCarrier) Set(key, value string) {
	if m.Headers == nil {
		m.Headers = make(amqp.Table)
	}
	m.Headers[key] = value
}

func (m *MessageHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	return keys
}

// InjectTraceContext 把当前追踪上下文写进消息头，headers 为 nil 时新建
func InjectTraceContext(ctx context.Context, headers amqp.Table) amqp.Table {
	carrier := &MessageHeaderCarrier{Headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Headers
}

// ExtractTraceContext 从消息头恢复追踪上下文，消费端的 span 因此挂在发布方链路下
func ExtractTraceContext(ctx context.Context, headers amqp.Table) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, &MessageHeaderCarrier{Headers: headers})
}

// TracePublish 包一层发布调用：建 span、记指标，publish 拿到的 ctx 带着 span 上下文
func TracePublish(ctx context.Context, exchange, routingKey string, publish func(context.Context) error) error {
	startTime := time.Now()

	ctx, span := tracer.Start(ctx, "rabbitmq.publish."+exchange, trace.WithAttributes(
		semconv.MessagingSystem("rabbitmq"),
		attribute.String("messaging.operation", "publish"),
		attribute.String("messaging.rabbitmq.exchange", exchange),
		attribute.String("messaging.rabbitmq.routing_key", routingKey),
	))
	defer span.End()

	err := publish(ctx)
	duration := time.Since(startTime).Seconds()

	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		if mqPublishErrors != nil {
			mqPublishErrors.Add(ctx, 1)
		}
	} else {
		span.SetStatus(codes.Ok, "Message published successfully")
	}

	labels := []attribute.KeyValue{
		semconv.MessagingSystem("rabbitmq"),
		attribute.String("messaging.operation", "publish"),
		attribute.String("messaging.rabbitmq.exchange", exchange),
		attribute.String("messaging.rabbitmq.routing_key", routingKey),
		attribute.String("messaging.status", status),
	}

	if mqMessagesTotal != nil {
		mqMessagesTotal.Add(ctx, 1, metric.WithAttributes(labels...))
	}
	if mqPublishDuration != nil {
		mqPublishDuration.Record(ctx, duration, metric.WithAttributes(labels...))
	}

	return err
}

// TraceConsume 包一层单条消息处理：恢复发布方上下文、建 span、记消费失败数
func TraceConsume(ctx context.Context, queue string, headers amqp.Table, handle func(context.Context) error) error {
	msgCtx := ExtractTraceContext(ctx, headers)

	msgCtx, span := tracer.Start(msgCtx, "rabbitmq.consume."+queue, trace.WithAttributes(
		semconv.MessagingSystem("rabbitmq"),
		attribute.String("messaging.operation", "process"),
		attribute.String("messaging.rabbitmq.queue", queue),
	))
	defer span.End()

	err := handle(msgCtx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		if mqConsumeErrors != nil {
			mqConsumeErrors.Add(msgCtx, 1)
		}
		return err
	}

	span.SetStatus(codes.Ok, "Message processed successfully")
	return nil
}
