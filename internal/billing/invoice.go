package billing

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/common"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

// BillingPeriod returns the calendar month preceding runDate.
func BillingPeriod(runDate time.Time) (start, end time.Time) {
	day := dateutil.Normalize(runDate)
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
}

// GenerateInvoice builds one invoice for a customer over [start, end]
// from delivered orders. Returns nil with no error when the customer
// had no delivered orders in the period.
func GenerateInvoice(db *gorm.DB, customerID int64, invoiceNo string, start, end time.Time) (*domain.Invoice, error) {
	var orders []domain.Order
	err := db.Where("customer_id = ? and status = ?", customerID, domain.OrderDelivered).
		Where("delivery_date >= ? and delivery_date <= ?", start, end).
		Order("delivery_date").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	inv := &domain.Invoice{
		ID:          common.UUIDint64(),
		InvoiceNo:   invoiceNo,
		CustomerId:  customerID,
		PeriodStart: start,
		PeriodEnd:   end,
		OrderCount:  len(orders),
		Status:      domain.InvoiceDraft,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	items := make([]domain.InvoiceItem, 0, len(orders))
	for _, o := range orders {
		inv.TotalAmount += o.TotalAmount
		items = append(items, domain.InvoiceItem{
			ID:        common.UUIDint64(),
			InvoiceId: inv.ID,
			OrderId:   o.ID,
			OrderNo:   o.OrderNo,
			OrderDate: o.DeliveryDate,
			Amount:    o.TotalAmount,
		})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		// roll the invoiced amount onto the customer's dues
		return tx.Model(&domain.Customer{}).Where("id = ?", customerID).
			Update("amount_due", gorm.Expr("amount_due + ?", inv.TotalAmount)).Error
	})
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// GenerateMonthlyInvoices creates invoices for every customer with
// delivered orders in the month before runDate. Invoice numbers are
// sequential within the batch; the batch runs single-flight from the
// scheduler so the sequence cannot race.
func GenerateMonthlyInvoices(db *gorm.DB, prefix string, runDate time.Time) (int, error) {
	if prefix == "" {
		prefix = "INV"
	}
	start, end := BillingPeriod(runDate)

	var customerIDs []int64
	err := db.Model(&domain.Order{}).
		Distinct("customer_id").
		Where("status = ?", domain.OrderDelivered).
		Where("delivery_date >= ? and delivery_date <= ?", start, end).
		Pluck("customer_id", &customerIDs).Error
	if err != nil {
		return 0, err
	}

	period := start.Format("200601")
	var existing int64
	db.Model(&domain.Invoice{}).Where("invoice_no like ?", fmt.Sprintf("%s-%s-%%", prefix, period)).Count(&existing)

	created := 0
	for _, id := range customerIDs {
		no := fmt.Sprintf("%s-%s-%04d", prefix, period, existing+int64(created)+1)
		inv, err := GenerateInvoice(db, id, no, start, end)
		if err != nil {
			zap.L().Error("invoice generation failed",
				zap.Int64("customer_id", id), zap.Error(err))
			continue
		}
		if inv != nil {
			created++
		}
	}
	return created, nil
}
