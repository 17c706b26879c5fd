package app

import (
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
)

// Settings categories and keys kept in sys_config.
const (
	SettingsDelivery = "delivery"
	SettingsBilling  = "billing"
	SettingsNotify   = "notify"
)

// DeliverySettings is the typed view of the delivery category, decoded
// from save payloads with mapstructure.
type DeliverySettings struct {
	MaxWorkers     int  `mapstructure:"max_workers"`
	LookaheadDays  int  `mapstructure:"lookahead_days"`
	BottleDeposit  int  `mapstructure:"bottle_deposit"`
	AutoFirstOrder bool `mapstructure:"auto_first_order"`
}

// SettingsManager caches sys_config rows with a short TTL so handlers
// and jobs don't hit the table on every read.
type SettingsManager struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[string]string
	load  time.Time
	ttl   time.Duration
}

func NewSettingsManager(db *gorm.DB) *SettingsManager {
	return &SettingsManager{db: db, cache: map[string]string{}, ttl: 30 * time.Second}
}

func (m *SettingsManager) refresh() {
	m.mu.RLock()
	fresh := time.Since(m.load) < m.ttl
	m.mu.RUnlock()
	if fresh {
		return
	}

	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		zap.L().Error("settings refresh failed", zap.Error(err))
		return
	}
	next := make(map[string]string, len(rows))
	for _, r := range rows {
		next[r.Type+"/"+r.Name] = r.Value
	}
	m.mu.Lock()
	m.cache = next
	m.load = time.Now()
	m.mu.Unlock()
}

func (m *SettingsManager) GetString(category, key string) string {
	m.refresh()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[category+"/"+key]
}

func (m *SettingsManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(m.GetString(category, key))
}

func (m *SettingsManager) GetInt(category, key string) int {
	return cast.ToInt(m.GetString(category, key))
}

func (m *SettingsManager) GetBool(category, key string) bool {
	return cast.ToBool(m.GetString(category, key))
}

// Save upserts a map of category -> {key: value} into sys_config and
// invalidates the cache.
func (m *SettingsManager) Save(payload map[string]interface{}) error {
	for category, v := range payload {
		kv := map[string]interface{}{}
		if err := mapstructure.Decode(v, &kv); err != nil {
			return err
		}
		for key, val := range kv {
			row := domain.SysConfig{
				ID:        common.UUIDint64(),
				Type:      category,
				Name:      key,
				Value:     cast.ToString(val),
				UpdatedAt: time.Now(),
			}
			err := m.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "type"}, {Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
	}
	m.mu.Lock()
	m.load = time.Time{}
	m.mu.Unlock()
	return nil
}

// DeliverySettings decodes the delivery category into its typed form.
func (m *SettingsManager) DeliverySettings() DeliverySettings {
	return DeliverySettings{
		MaxWorkers:     m.GetInt(SettingsDelivery, "max_workers"),
		LookaheadDays:  m.GetInt(SettingsDelivery, "lookahead_days"),
		BottleDeposit:  m.GetInt(SettingsDelivery, "bottle_deposit"),
		AutoFirstOrder: m.GetBool(SettingsDelivery, "auto_first_order"),
	}
}
