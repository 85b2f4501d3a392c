package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics OpenTelemetry 指标集合
type OTelMetrics struct {
	// 打卡与告警指标
	CheckinsTotal       metric.Int64Counter
	AlarmsRaisedTotal   metric.Int64Counter
	AlarmsResolvedTotal metric.Int64Counter
	SweepUsersScanned   metric.Int64Counter
	SweepDuration       metric.Float64Histogram

	// 通知投递指标
	DeliveryAttemptsTotal metric.Int64Counter
	DeliveryDuration      metric.Float64Histogram
}

var (
	metrics *OTelMetrics
	meter   = otel.Meter("oldunmu")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.CheckinsTotal, err = meter.Int64Counter(
		"checkins_total",
		metric.WithDescription("Total number of check-ins recorded"),
		metric.WithUnit("{checkin}"),
	)
	if err != nil {
		return err
	}

	metrics.AlarmsRaisedTotal, err = meter.Int64Counter(
		"alarms_raised_total",
		metric.WithDescription("Total number of alarms raised"),
		metric.WithUnit("{alarm}"),
	)
	if err != nil {
		return err
	}

	metrics.AlarmsResolvedTotal, err = meter.Int64Counter(
		"alarms_closed_total",
		metric.WithDescription("Total number of alarms cancelled or resolved"),
		metric.WithUnit("{alarm}"),
	)
	if err != nil {
		return err
	}

	metrics.SweepUsersScanned, err = meter.Int64Counter(
		"sweep_users_scanned_total",
		metric.WithDescription("Total number of users scanned by the staleness sweep"),
		metric.WithUnit("{user}"),
	)
	if err != nil {
		return err
	}

	metrics.SweepDuration, err = meter.Float64Histogram(
		"sweep_duration_seconds",
		metric.WithDescription("Staleness sweep batch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.DeliveryAttemptsTotal, err = meter.Int64Counter(
		"delivery_attempts_total",
		metric.WithDescription("Total number of notification delivery attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	metrics.DeliveryDuration, err = meter.Float64Histogram(
		"delivery_duration_seconds",
		metric.WithDescription("Time spent delivering a notification in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics 获取全局指标实例
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordCheckin 记录一次打卡
func (m *OTelMetrics) RecordCheckin(ctx context.Context) {
	if m == nil || m.CheckinsTotal == nil {
		return
	}
	m.CheckinsTotal.Add(ctx, 1)
}

// RecordAlarmRaised 记录一次告警触发
func (m *OTelMetrics) RecordAlarmRaised(ctx context.Context, alarmType string) {
	if m == nil || m.AlarmsRaisedTotal == nil {
		return
	}
	m.AlarmsRaisedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("alarm.type", alarmType),
	))
}

// RecordAlarmClosed 记录一次告警关闭
func (m *OTelMetrics) RecordAlarmClosed(ctx context.Context, status string) {
	if m == nil || m.AlarmsResolvedTotal == nil {
		return
	}
	m.AlarmsResolvedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("alarm.status", status),
	))
}

// RecordSweep 记录一次扫描批次
func (m *OTelMetrics) RecordSweep(ctx context.Context, usersScanned int, duration float64) {
	if m == nil || m.SweepUsersScanned == nil {
		return
	}
	m.SweepUsersScanned.Add(ctx, int64(usersScanned))
	m.SweepDuration.Record(ctx, duration)
}

// RecordDeliveryAttempt 记录一次投递尝试
func (m *OTelMetrics) RecordDeliveryAttempt(ctx context.Context, channel, status string, duration float64) {
	if m == nil || m.DeliveryAttemptsTotal == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("delivery.channel", channel),
		attribute.String("delivery.status", status),
	)
	m.DeliveryAttemptsTotal.Add(ctx, 1, labels)
	m.DeliveryDuration.Record(ctx, duration, labels)
}
