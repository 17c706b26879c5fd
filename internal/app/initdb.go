package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "milkrun"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(operator.Password) == ""
	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, common.ENABLED)

	if !resetPassword && !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetPassword {
		updates["password"] = hashedPassword
	}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = common.ENABLED
	}

	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Type: SettingsDelivery, Name: "max_workers", Value: "20", Remark: "order generation pool size"},
		{Type: SettingsDelivery, Name: "lookahead_days", Value: "1", Remark: "days of advance order generation"},
		{Type: SettingsDelivery, Name: "bottle_deposit", Value: "20", Remark: "deposit per glass bottle"},
		{Type: SettingsDelivery, Name: "auto_first_order", Value: "true", Remark: "create first order on customer creation"},
		{Type: SettingsBilling, Name: "invoice_prefix", Value: "INV", Remark: "invoice number prefix"},
		{Type: SettingsBilling, Name: "invoice_due_days", Value: "7", Remark: "days until invoice due"},
		{Type: SettingsNotify, Name: "otp_ttl_minutes", Value: "5", Remark: "otp validity window"},
		{Type: SettingsNotify, Name: "invoice_email_enable", Value: "true", Remark: "email invoices on generation"},
	}
	for _, def := range defaults {
		var row domain.SysConfig
		err := a.gormDB.Where("type = ? and name = ?", def.Type, def.Name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def.ID = common.UUIDint64()
			def.CreatedAt = time.Now()
			def.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&def).Error; err != nil {
				zap.L().Error("failed to seed setting", zap.String("name", def.Name), zap.Error(err))
			}
		}
	}
}

// checkSchedulers seeds the standard background tasks so a fresh
// install generates orders without manual setup.
func (a *Application) checkSchedulers() {
	defaults := []domain.DeliverySchedule{
		{Name: "Generate today's orders", TaskType: domain.TaskGenerateToday, Interval: 86400},
		{Name: "Generate tomorrow's orders", TaskType: domain.TaskGenerateTomorrow, Interval: 86400},
		{Name: "Renew monthly subscriptions", TaskType: domain.TaskRenewMonthly, Interval: 86400},
		{Name: "Generate monthly invoices", TaskType: domain.TaskMonthlyInvoices, Interval: 86400},
	}
	for _, def := range defaults {
		var row domain.DeliverySchedule
		err := a.gormDB.Where("task_type = ?", def.TaskType).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def.ID = common.UUIDint64()
			def.Status = common.ENABLED
			def.CreatedAt = time.Now()
			def.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&def).Error; err != nil {
				zap.L().Error("failed to seed scheduler", zap.String("task", def.TaskType), zap.Error(err))
			}
		}
	}
}
