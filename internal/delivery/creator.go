package delivery

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

var (
	ErrNothingDue  = errors.New("no subscription line due on date")
	ErrOrderExists = errors.New("order already exists for date")
)

// NextOrderNo allocates the next order number for the given day from
// the per-day counter row. Must run inside the same transaction as the
// order insert; the row lock taken by the upsert serializes concurrent
// allocations so two creators can never format the same sequence.
func NextOrderNo(tx *gorm.DB, day time.Time) (string, error) {
	key := dateutil.Normalize(day).Format("20060102")
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"seq": gorm.Expr("order_sequence.seq + 1"),
		}),
	}).Create(&domain.OrderSequence{Day: key, Seq: 1}).Error
	if err != nil {
		return "", err
	}
	var row domain.OrderSequence
	if err := tx.Where("day = ?", key).First(&row).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", key, row.Seq), nil
}

// CreateAutomaticOrder materializes the customer's due lines for the
// target date and persists one scheduled order. Returns ErrNothingDue
// when no line is eligible and ErrOrderExists when the customer
// already has a non-cancelled order for the date, so generation runs
// are idempotent.
//
// The customer must be loaded with lines and product refs resolved
// (LoadCustomer does that).
func CreateAutomaticOrder(db *gorm.DB, customer *domain.Customer, target time.Time) (*domain.Order, error) {
	items, total := Materialize(customer, target)
	if len(items) == 0 {
		return nil, ErrNothingDue
	}

	day := dateutil.Normalize(target)
	var existing int64
	err := db.Model(&domain.Order{}).
		Where("customer_id = ? and delivery_date = ? and status <> ?",
			customer.ID, day, domain.OrderCancelled).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrOrderExists
	}

	order := &domain.Order{
		ID:            common.UUIDint64(),
		CustomerId:    customer.ID,
		DeliveryBoyId: customer.DeliveryBoyId,
		DeliveryDate:  dateutil.Normalize(target),
		Status:        domain.OrderScheduled,
		PaymentStatus: domain.PayUnpaid,
		TotalAmount:   total,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		no, err := NextOrderNo(tx, target)
		if err != nil {
			return err
		}
		order.OrderNo = no
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = common.UUIDint64()
			items[i].OrderId = order.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	order.Items = items

	zap.L().Info("automatic order created",
		zap.String("order_no", order.OrderNo),
		zap.Int64("customer_id", customer.ID),
		zap.String("delivery_date", dateutil.Format(order.DeliveryDate)),
		zap.Float64("total", order.TotalAmount))
	return order, nil
}

// LoadCustomer fetches a customer with subscription lines and product
// references resolved, ready for materialization.
func LoadCustomer(db *gorm.DB, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.Preload("Lines").Preload("Lines.Product").First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
