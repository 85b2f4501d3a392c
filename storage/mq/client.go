package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"OldunMu/config"
	otelmq "OldunMu/pkg/mq"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	initErr  error
)

// 交换机与队列拓扑
// alarm.topic 承载告警通知扇出，按渠道路由；
// scheduler.delayed 是延迟交换机，调度器的扫描批次经由它下发
const (
	AlarmExchange     = "alarm.topic"
	SchedulerExchange = "scheduler.delayed"

	AlarmEmailQueue = "alarm.notification.email"
	AlarmSMSQueue   = "alarm.notification.sms"
	SweepQueue      = "scheduler.staleness.sweep"

	AlarmEmailRoutingKey = "alarm.notification.email"
	AlarmSMSRoutingKey   = "alarm.notification.sms"
	SweepRoutingKey      = "scheduler.staleness.sweep"
)

func Init() error {
	connOnce.Do(func() {
		url := config.Cfg.GetRabbitMQURL()

		conn, initErr = amqp.Dial(url)
		if initErr != nil {
			return
		}

		if initErr = declareTopology(); initErr != nil {
			return
		}

		initErr = otelmq.InitMQMetrics()
	})

	return initErr
}

// declareTopology 声明交换机、队列和绑定，幂等
func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open topology channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		AlarmExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare alarm exchange: %w", err)
	}

	// 延迟交换机依赖 rabbitmq-delayed-message-exchange 插件
	if err := ch.ExchangeDeclare(
		SchedulerExchange,
		"x-delayed-message",
		true,
		false,
		false,
		false,
		amqp.Table{"x-delayed-type": "topic"},
	); err != nil {
		return fmt.Errorf("failed to declare scheduler exchange: %w", err)
	}

	bindings := []struct {
		queue      string
		routingKey string
		exchange   string
	}{
		{AlarmEmailQueue, AlarmEmailRoutingKey, AlarmExchange},
		{AlarmSMSQueue, AlarmSMSRoutingKey, AlarmExchange},
		{SweepQueue, SweepRoutingKey, SchedulerExchange},
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}

func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	return conn.Close()
}
