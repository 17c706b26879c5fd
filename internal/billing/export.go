package billing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/360EntSecGroup-Skylar/excelize"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/internal/domain"
	"github.com/milkrunhq/milkrun/pkg/dateutil"
)

// ExportInvoiceXlsx renders an invoice workbook under workdir/invoices
// and records the file path on the invoice row.
func ExportInvoiceXlsx(db *gorm.DB, invoiceID int64, workdir string) (string, error) {
	var inv domain.Invoice
	if err := db.Preload("Items").First(&inv, invoiceID).Error; err != nil {
		return "", err
	}
	var customer domain.Customer
	if err := db.First(&customer, inv.CustomerId).Error; err != nil {
		return "", err
	}

	xlsx := excelize.NewFile()
	const sheet = "Sheet1"
	xlsx.SetCellValue(sheet, "A1", "Invoice")
	xlsx.SetCellValue(sheet, "B1", inv.InvoiceNo)
	xlsx.SetCellValue(sheet, "A2", "Customer")
	xlsx.SetCellValue(sheet, "B2", customer.Name)
	xlsx.SetCellValue(sheet, "A3", "Phone")
	xlsx.SetCellValue(sheet, "B3", customer.Phone)
	xlsx.SetCellValue(sheet, "A4", "Period")
	xlsx.SetCellValue(sheet, "B4", fmt.Sprintf("%s - %s",
		dateutil.Format(inv.PeriodStart), dateutil.Format(inv.PeriodEnd)))

	xlsx.SetCellValue(sheet, "A6", "Order No")
	xlsx.SetCellValue(sheet, "B6", "Date")
	xlsx.SetCellValue(sheet, "C6", "Amount")
	row := 7
	for _, item := range inv.Items {
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.OrderNo)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", row), dateutil.Format(item.OrderDate))
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Amount)
		row++
	}
	xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", row+1), "Total")
	xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", row+1), inv.TotalAmount)

	dir := filepath.Join(workdir, "invoices")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, inv.InvoiceNo+".xlsx")
	if err := xlsx.SaveAs(path); err != nil {
		return "", err
	}

	if err := db.Model(&domain.Invoice{}).Where("id = ?", inv.ID).
		Update("file_path", path).Error; err != nil {
		return "", err
	}
	return path, nil
}
