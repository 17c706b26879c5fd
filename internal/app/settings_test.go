package app

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/milkrunhq/milkrun/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSettingsSaveAndRead(t *testing.T) {
	db := newTestDB(t)
	m := NewSettingsManager(db)

	err := m.Save(map[string]interface{}{
		SettingsDelivery: map[string]interface{}{
			"max_workers":      25,
			"bottle_deposit":   30,
			"auto_first_order": true,
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := m.GetInt(SettingsDelivery, "max_workers"); got != 25 {
		t.Fatalf("max_workers = %d, want 25", got)
	}
	if got := m.GetInt64(SettingsDelivery, "bottle_deposit"); got != 30 {
		t.Fatalf("bottle_deposit = %d, want 30", got)
	}
	if !m.GetBool(SettingsDelivery, "auto_first_order") {
		t.Fatal("auto_first_order should be true")
	}
	if got := m.GetString(SettingsDelivery, "missing_key"); got != "" {
		t.Fatalf("missing key = %q, want empty", got)
	}
}

func TestSettingsUpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	m := NewSettingsManager(db)

	for _, v := range []int{10, 20} {
		err := m.Save(map[string]interface{}{
			SettingsDelivery: map[string]interface{}{"max_workers": v},
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if got := m.GetInt(SettingsDelivery, "max_workers"); got != 20 {
		t.Fatalf("max_workers = %d, want 20", got)
	}

	var count int64
	db.Model(&domain.SysConfig{}).
		Where("type = ? and name = ?", SettingsDelivery, "max_workers").Count(&count)
	if count != 1 {
		t.Fatalf("rows = %d, want 1 after upsert", count)
	}
}

func TestDeliverySettingsTyped(t *testing.T) {
	db := newTestDB(t)
	m := NewSettingsManager(db)

	err := m.Save(map[string]interface{}{
		SettingsDelivery: map[string]interface{}{
			"max_workers":      8,
			"lookahead_days":   2,
			"bottle_deposit":   15,
			"auto_first_order": false,
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	ds := m.DeliverySettings()
	if ds.MaxWorkers != 8 || ds.LookaheadDays != 2 || ds.BottleDeposit != 15 || ds.AutoFirstOrder {
		t.Fatalf("unexpected typed settings: %+v", ds)
	}
}
