package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"OldunMu/config"
	"OldunMu/internal/model"
	"OldunMu/internal/model/dto"
	"OldunMu/pkg/email"
	pkgerrors "OldunMu/pkg/errors"
	"OldunMu/pkg/logger"
	"OldunMu/storage/database"
	"OldunMu/utils"
)

var (
	contactService *ContactService
	contactOnce    sync.Once
)

func Contact() *ContactService {
	contactOnce.Do(func() {
		contactService = &ContactService{}
	})
	return contactService
}

type ContactService struct{}

// maxContactsForTier 订阅套餐的联系人上限
func maxContactsForTier(tier model.SubscriptionTier) int {
	if tier == model.SubscriptionTierPremium {
		return config.Cfg.PremiumTierMaxContacts
	}
	return config.Cfg.FreeTierMaxContacts
}

// List 联系人列表，按优先级升序
func (s *ContactService) List(ctx context.Context, userID string) ([]dto.ContactItem, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	var rows []model.EmergencyContact
	err = database.DB().WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("priority ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}

	items := make([]dto.ContactItem, 0, len(rows))
	for i := range rows {
		items = append(items, s.toContactItem(&rows[i]))
	}
	return items, nil
}

// Create 添加紧急联系人
// 套餐决定数量上限，同一用户内优先级不允许重复
func (s *ContactService) Create(ctx context.Context, userID string, req *dto.CreateContactRequest) (*dto.ContactItem, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email != "" {
		if err := utils.ValidateEmail(*req.Email); err != nil {
			return nil, err
		}
	}

	db := database.DB().WithContext(ctx)

	var count int64
	if err := db.Model(&model.EmergencyContact{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	if count >= int64(maxContactsForTier(user.SubscriptionTier)) {
		return nil, pkgerrors.ContactLimitReached
	}

	if err := db.Model(&model.EmergencyContact{}).
		Where("user_id = ? AND priority = ?", user.ID, req.Priority).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check priority conflict: %w", err)
	}
	if count > 0 {
		return nil, pkgerrors.ContactPriorityConflict
	}

	cipher, err := utils.EncryptPhone(req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt contact phone: %w", err)
	}
	phoneHash := utils.HashPhone(req.Phone)

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	contact := &model.EmergencyContact{
		UserID:           user.ID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneCipher:      cipher,
		PhoneHash:        &phoneHash,
		Email:            req.Email,
		Relationship:     model.ParseRelationship(req.Relationship),
		Priority:         req.Priority,
		PersonalMessage:  req.PersonalMessage,
		VerificationCode: &code,
	}

	if err := db.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	logger.Logger.Info("Emergency contact created",
		zap.Int64("user_id", user.PublicID),
		zap.Int64("contact_id", contact.ID),
		zap.Int("priority", contact.Priority),
	)

	// 有邮箱就发验证码，发送失败不影响创建
	if req.Email != nil && *req.Email != "" {
		err := email.SendContactVerification(ctx, *req.Email, email.VerificationEmailData{
			ContactName: contact.FullName(),
			UserName:    user.FirstName + " " + user.LastName,
			Code:        code,
		})
		if err != nil {
			logger.Logger.Error("Failed to send contact verification email",
				zap.Int64("contact_id", contact.ID),
				zap.Error(err),
			)
		}
	}

	item := s.toContactItem(contact)
	return &item, nil
}

// Update 更新联系人，全部字段可选
func (s *ContactService) Update(ctx context.Context, userID, contactID string, req *dto.UpdateContactRequest) (*dto.ContactItem, error) {
	user, contact, err := s.loadOwnedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	db := database.DB().WithContext(ctx)

	if req.Priority != nil && *req.Priority != contact.Priority {
		var count int64
		if err := db.Model(&model.EmergencyContact{}).
			Where("user_id = ? AND priority = ? AND id <> ?", user.ID, *req.Priority, contact.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check priority conflict: %w", err)
		}
		if count > 0 {
			return nil, pkgerrors.ContactPriorityConflict
		}
		contact.Priority = *req.Priority
	}

	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = *req.LastName
	}
	if req.Relationship != nil {
		contact.Relationship = model.ParseRelationship(*req.Relationship)
	}
	if req.PersonalMessage != nil {
		contact.PersonalMessage = req.PersonalMessage
	}
	if req.Email != nil {
		if *req.Email != "" {
			if err := utils.ValidateEmail(*req.Email); err != nil {
				return nil, err
			}
		}
		contact.Email = req.Email
	}
	if req.Phone != nil {
		if err := utils.ValidatePhone(*req.Phone); err != nil {
			return nil, err
		}
		cipher, err := utils.EncryptPhone(*req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt contact phone: %w", err)
		}
		phoneHash := utils.HashPhone(*req.Phone)
		contact.PhoneCipher = cipher
		contact.PhoneHash = &phoneHash
		// 换了手机号需要重新验证
		contact.Verified = false
	}

	if err := db.Save(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	item := s.toContactItem(contact)
	return &item, nil
}

// Delete 删除联系人
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) error {
	_, contact, err := s.loadOwnedContact(ctx, userID, contactID)
	if err != nil {
		return err
	}

	if err := database.DB().WithContext(ctx).Delete(contact).Error; err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	logger.Logger.Info("Emergency contact deleted",
		zap.Int64("contact_id", contact.ID),
	)
	return nil
}

// Verify 联系人验证，验证码匹配后进入扇出名单
func (s *ContactService) Verify(ctx context.Context, userID, contactID string, req *dto.VerifyContactRequest) (*dto.ContactItem, error) {
	_, contact, err := s.loadOwnedContact(ctx, userID, contactID)
	if err != nil {
		return nil, err
	}

	if contact.VerificationCode == nil || *contact.VerificationCode != req.Code {
		return nil, pkgerrors.InvalidVerificationCode
	}

	contact.Verified = true
	contact.VerificationCode = nil

	err = database.DB().WithContext(ctx).
		Model(contact).
		Select("verified", "verification_code").
		Updates(map[string]interface{}{"verified": true, "verification_code": nil}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to verify contact: %w", err)
	}

	logger.Logger.Info("Emergency contact verified",
		zap.Int64("contact_id", contact.ID),
	)

	item := s.toContactItem(contact)
	return &item, nil
}

// loadOwnedContact 加载联系人并校验归属，归属不符按不存在处理
func (s *ContactService) loadOwnedContact(ctx context.Context, userID, contactID string) (*model.User, *model.EmergencyContact, error) {
	publicID, err := parsePublicID(userID)
	if err != nil {
		return nil, nil, err
	}

	user, err := getUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}

	id, err := strconv.ParseInt(contactID, 10, 64)
	if err != nil {
		return nil, nil, pkgerrors.ContactNotFound
	}

	var contact model.EmergencyContact
	err = database.DB().WithContext(ctx).First(&contact, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.ContactNotFound
		}
		return nil, nil, fmt.Errorf("failed to query contact: %w", err)
	}

	if contact.UserID != user.ID {
		return nil, nil, pkgerrors.ContactNotFound
	}
	return user, &contact, nil
}

func (s *ContactService) toContactItem(contact *model.EmergencyContact) dto.ContactItem {
	item := dto.ContactItem{
		ContactID:       contact.ID,
		CreatedAt:       contact.CreatedAt,
		FirstName:       contact.FirstName,
		LastName:        contact.LastName,
		Relationship:    string(contact.Relationship),
		Email:           contact.Email,
		Priority:        contact.Priority,
		PersonalMessage: contact.PersonalMessage,
		Verified:        contact.Verified,
	}

	if len(contact.PhoneCipher) > 0 {
		phone, err := utils.DecryptPhone(contact.PhoneCipher)
		if err != nil {
			logger.Logger.Error("Failed to decrypt contact phone",
				zap.Int64("contact_id", contact.ID),
				zap.Error(err),
			)
		} else {
			item.PhoneMasked = utils.MaskPhone(phone)
		}
	}
	return item
}

// generateVerificationCode 生成 6 位数字验证码
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
