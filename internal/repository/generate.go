package repository

import (
	"fmt"
	"os"

	"gorm.io/gen"

	"OldunMu/internal/model"
	"OldunMu/pkg/errors"
	"OldunMu/storage/database"
)

// ========== User 相关查询接口 ==========

// UserQuerier 用户查询接口
type UserQuerier interface {
	// GetByEmail 根据邮箱查询用户
	//
	// SELECT * FROM @@table WHERE email = @email LIMIT 1
	GetByEmail(email string) (*gen.T, error)

	// GetByPhoneHash 根据手机号哈希查询用户
	//
	// SELECT * FROM @@table WHERE phone_hash = @phoneHash LIMIT 1
	GetByPhoneHash(phoneHash string) (*gen.T, error)

	// GetByPublicID 根据 PublicID 查询用户（API 中 userID 是 public_id）
	//
	// SELECT * FROM @@table WHERE public_id = @publicID LIMIT 1
	GetByPublicID(publicID int64) (*gen.T, error)

	// ListUserIDs 分批列出全部用户主键（用于失联扫描）
	//
	// SELECT id FROM @@table
	// WHERE id > @cursorID
	// ORDER BY id ASC
	// LIMIT @limit
	ListUserIDs(cursorID int64, limit int) ([]int64, error)
}

// ========== Checkin 相关查询接口 ==========

// CheckinQuerier 打卡记录查询接口
type CheckinQuerier interface {
	// GetLatestByUserID 获取用户最近一次打卡
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY timestamp DESC
	// LIMIT 1
	GetLatestByUserID(userID int64) (*gen.T, error)

	// ListRecentByUserID 按时间倒序获取用户最近的打卡记录（用于连续天数计算）
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY timestamp DESC
	// LIMIT @limit
	ListRecentByUserID(userID int64, limit int) ([]*gen.T, error)

	// ListByUserIDAndRange 按用户和时间范围查询打卡记录（游标分页）
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	//   {{if from != ""}}
	//   AND timestamp >= @from::timestamptz
	//   {{end}}
	//   {{if to != ""}}
	//   AND timestamp <= @to::timestamptz
	//   {{end}}
	//   {{if cursorID > 0}}
	//   AND id < @cursorID
	//   {{end}}
	// ORDER BY timestamp DESC
	// LIMIT @limit
	ListByUserIDAndRange(userID int64, from, to string, cursorID int64, limit int) ([]*gen.T, error)
}

// ========== Alarm 相关查询接口 ==========

// AlarmQuerier 告警查询接口
type AlarmQuerier interface {
	// GetByPublicID 根据 PublicID 查询告警
	//
	// SELECT * FROM @@table WHERE public_id = @publicID LIMIT 1
	GetByPublicID(publicID int64) (*gen.T, error)

	// GetActiveAutomaticByUserID 查询用户当前的自动告警（去重检查）
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND type = 'automatic' AND status = 'active'
	// LIMIT 1
	GetActiveAutomaticByUserID(userID int64) (*gen.T, error)

	// ListByUserIDAndStatus 按用户和状态查询告警历史（游标分页）
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	//   {{if status != ""}}
	//   AND status = @status
	//   {{end}}
	//   {{if cursorID > 0}}
	//   AND id < @cursorID
	//   {{end}}
	// ORDER BY created_at DESC
	// LIMIT @limit
	ListByUserIDAndStatus(userID int64, status string, cursorID int64, limit int) ([]*gen.T, error)
}

// ========== EmergencyContact 相关查询接口 ==========

// ContactQuerier 紧急联系人查询接口
type ContactQuerier interface {
	// ListVerifiedByUserID 查询用户已验证的联系人（按优先级升序）
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID AND verified = true
	// ORDER BY priority ASC, id ASC
	ListVerifiedByUserID(userID int64) ([]*gen.T, error)

	// ListByUserID 查询用户全部联系人
	//
	// SELECT * FROM @@table
	// WHERE user_id = @userID
	// ORDER BY priority ASC, id ASC
	ListByUserID(userID int64) ([]*gen.T, error)

	// CountByUserID 统计用户联系人数量（套餐上限检查）
	//
	// SELECT COUNT(*) as count FROM @@table WHERE user_id = @userID
	CountByUserID(userID int64) (int64, error)
}

// ========== DeliveryAttempt 相关查询接口 ==========

// DeliveryAttemptQuerier 投递尝试记录查询接口
type DeliveryAttemptQuerier interface {
	// ListByAlarmID 根据告警ID查询投递尝试记录
	//
	// SELECT * FROM @@table
	// WHERE alarm_id = @alarmID
	// ORDER BY attempted_at DESC
	ListByAlarmID(alarmID int64) ([]*gen.T, error)

	// CountByAlarmIDAndStatus 统计告警的投递结果（按状态分组）
	//
	// SELECT status, COUNT(*) as count
	// FROM @@table
	// WHERE alarm_id = @alarmID
	// GROUP BY status
	CountByAlarmIDAndStatus(alarmID int64) ([]gen.M, error)
}

func Generate() error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 运行数据库迁移（确保表存在）
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migration: %w", err)
	}

	db := database.DB()
	if db == nil {
		return errors.ErrDatabaseConnectionNil
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./internal/repository/query",
		ModelPkgPath:      "OldunMu/internal/model",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)

	g.ApplyBasic(
		&model.User{},
		&model.CheckinRecord{},
		&model.EmergencyContact{},
		&model.Alarm{},
		&model.Notification{},
		&model.DeliveryAttempt{},
	)

	g.ApplyInterface(func(UserQuerier) {}, &model.User{})
	g.ApplyInterface(func(CheckinQuerier) {}, &model.CheckinRecord{})
	g.ApplyInterface(func(AlarmQuerier) {}, &model.Alarm{})
	g.ApplyInterface(func(ContactQuerier) {}, &model.EmergencyContact{})
	g.ApplyInterface(func(DeliveryAttemptQuerier) {}, &model.DeliveryAttempt{})

	g.Execute()

	return nil
}

func RunGenerate() {
	if err := Generate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate code: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Code generation completed successfully!")
}
