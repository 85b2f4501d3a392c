package mq

import (
	"context"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageHeaderCarrier(t *testing.T) {
	carrier := &MessageHeaderCarrier{}

	carrier.Set("traceparent", "00-abc-def-01")
	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, carrier.Keys())

	// 非字符串头（比如 x-delay）不能当追踪头读出来
	carrier.Headers["x-delay"] = int64(5000)
	assert.Equal(t, "", carrier.Get("x-delay"))
	assert.Equal(t, "", carrier.Get("missing"))
}

func TestTraceContextRoundTripThroughHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	// 发布侧注入时要保住已有的消息头
	headers := InjectTraceContext(ctx, amqp.Table{"x-delay": int64(3000)})
	require.Contains(t, headers, "traceparent")
	assert.Equal(t, int64(3000), headers["x-delay"])

	extracted := ExtractTraceContext(context.Background(), headers)
	got := trace.SpanContextFromContext(extracted)
	assert.Equal(t, traceID, got.TraceID())
}

func TestTracePublishPropagatesError(t *testing.T) {
	// 指标未初始化时埋点不能崩，错误原样透传
	publishErr := fmt.Errorf("channel closed")
	err := TracePublish(context.Background(), "alarm.topic", "alarm.notification.email", func(context.Context) error {
		return publishErr
	})
	assert.ErrorIs(t, err, publishErr)

	assert.NoError(t, TracePublish(context.Background(), "alarm.topic", "alarm.notification.sms", func(context.Context) error {
		return nil
	}))
}

func TestTraceConsumeRunsHandlerWithExtractedContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4737")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b8")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	headers := InjectTraceContext(trace.ContextWithSpanContext(context.Background(), sc), nil)

	var handlerCtx context.Context
	err = TraceConsume(context.Background(), "alarm.notification.email", headers, func(msgCtx context.Context) error {
		handlerCtx = msgCtx
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, traceID, trace.SpanContextFromContext(handlerCtx).TraceID())

	handleErr := fmt.Errorf("delivery failed")
	err = TraceConsume(context.Background(), "alarm.notification.email", headers, func(context.Context) error {
		return handleErr
	})
	assert.ErrorIs(t, err, handleErr)
}
