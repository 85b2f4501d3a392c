package safety

import (
	"context"

	"go.uber.org/zap"

	"OldunMu/internal/model"
	"OldunMu/pkg/errors"
)

// AlarmStore 告警存储接口
type AlarmStore interface {
	Save(ctx context.Context, alarm *model.Alarm) error
	Update(ctx context.Context, alarm *model.Alarm) error
	FindActiveAutomatic(ctx context.Context, userID int64) (*model.Alarm, error)
}

// ContactProvider 已验证联系人查询接口
type ContactProvider interface {
	GetVerifiedContacts(ctx context.Context, userID int64) ([]Contact, error)
}

// Dispatcher 单条通知尝试的投递接口，实现方负责真正的发送或入队
type Dispatcher interface {
	Dispatch(ctx context.Context, alarm *model.Alarm, attempt Attempt) error
}

// UserLocker 按用户粒度的互斥点，保证检查加创建的串行化
type UserLocker interface {
	TryLock(ctx context.Context, userID int64) (release func(), acquired bool, err error)
}

// Lifecycle 告警生命周期状态机
// active 是唯一非终态，cancelled/resolved 后拒绝一切转移
type Lifecycle struct {
	store    AlarmStore
	contacts ContactProvider
	dispatch Dispatcher
	locker   UserLocker
	newID    func() (int64, error)
	clock    Clock
	log      *zap.Logger
}

// NewLifecycle 构造告警状态机，依赖全部显式注入
func NewLifecycle(
	store AlarmStore,
	contacts ContactProvider,
	dispatch Dispatcher,
	locker UserLocker,
	newID func() (int64, error),
	clock Clock,
	log *zap.Logger,
) *Lifecycle {
	return &Lifecycle{
		store:    store,
		contacts: contacts,
		dispatch: dispatch,
		locker:   locker,
		newID:    newID,
		clock:    clock,
		log:      log,
	}
}

// RaiseParams 触发告警的入参
type RaiseParams struct {
	UserID    int64
	Type      model.AlarmType
	Message   *string
	Latitude  *float64
	Longitude *float64
}

// Raise 触发告警，created 表示本次调用真的新建了告警
// automatic 类型在每用户锁内做查重，同一用户至多一条 active 的自动告警；
// manual/panic 是用户显式动作，从不去重。
// 通知扇出在创建后同步执行，单个联系人的失败只记录不回滚
func (l *Lifecycle) Raise(ctx context.Context, params RaiseParams) (alarm *model.Alarm, created bool, err error) {
	if params.Type == model.AlarmTypeAutomatic {
		release, acquired, err := l.locker.TryLock(ctx, params.UserID)
		if err != nil {
			return nil, false, err
		}
		if !acquired {
			// 另一个触发方正在处理同一个用户，放弃本次触发
			l.log.Info("automatic alarm raise skipped, user lock held elsewhere",
				zap.Int64("user_id", params.UserID),
			)
			return nil, false, nil
		}
		defer release()

		existing, err := l.store.FindActiveAutomatic(ctx, params.UserID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	publicID, err := l.newID()
	if err != nil {
		return nil, false, err
	}

	alarm = &model.Alarm{
		PublicID:  publicID,
		UserID:    params.UserID,
		Type:      params.Type,
		Status:    model.AlarmStatusActive,
		Message:   params.Message,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
	}

	attempts := l.planFanout(ctx, params.UserID)
	notified := make(model.NotifiedContacts, 0, len(attempts))
	for _, a := range attempts {
		notified = append(notified, model.NotifiedContact{
			ContactName: a.ContactName,
			Channel:     string(a.Channel),
		})
	}
	alarm.NotifiedContacts = notified

	if err := l.store.Save(ctx, alarm); err != nil {
		return nil, false, err
	}

	l.log.Info("alarm raised",
		zap.Int64("alarm_id", alarm.PublicID),
		zap.Int64("user_id", alarm.UserID),
		zap.String("type", string(alarm.Type)),
		zap.Int("planned_notifications", len(attempts)),
	)

	for _, attempt := range attempts {
		if err := l.dispatch.Dispatch(ctx, alarm, attempt); err != nil {
			// 单条投递失败不影响告警本身和其余联系人
			l.log.Error("alarm notification dispatch failed",
				zap.Int64("alarm_id", alarm.PublicID),
				zap.String("contact", attempt.ContactName),
				zap.String("channel", string(attempt.Channel)),
				zap.Error(err),
			)
		}
	}

	return alarm, true, nil
}

// planFanout 拉取联系人并计算通知计划，查询失败时降级为空计划
func (l *Lifecycle) planFanout(ctx context.Context, userID int64) []Attempt {
	contacts, err := l.contacts.GetVerifiedContacts(ctx, userID)
	if err != nil {
		l.log.Error("failed to load verified contacts for fanout",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return PlanFanout(contacts)
}

// Cancel 取消告警，仅允许从 active 转移
func (l *Lifecycle) Cancel(ctx context.Context, alarm *model.Alarm, reason *string) (*model.Alarm, error) {
	if !alarm.IsActive() {
		return nil, errors.InvalidTransition
	}

	now := l.clock.Now()
	alarm.Status = model.AlarmStatusCancelled
	alarm.CancelledAt = &now
	alarm.CancelReason = reason

	if err := l.store.Update(ctx, alarm); err != nil {
		return nil, err
	}

	l.log.Info("alarm cancelled",
		zap.Int64("alarm_id", alarm.PublicID),
		zap.Int64("user_id", alarm.UserID),
	)
	return alarm, nil
}

// Resolve 告警解除，仅允许从 active 转移
func (l *Lifecycle) Resolve(ctx context.Context, alarm *model.Alarm) (*model.Alarm, error) {
	if !alarm.IsActive() {
		return nil, errors.InvalidTransition
	}

	alarm.Status = model.AlarmStatusResolved

	if err := l.store.Update(ctx, alarm); err != nil {
		return nil, err
	}

	l.log.Info("alarm resolved",
		zap.Int64("alarm_id", alarm.PublicID),
		zap.Int64("user_id", alarm.UserID),
	)
	return alarm, nil
}
