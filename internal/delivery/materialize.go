package delivery

import (
	"time"

	"github.com/milkrunhq/milkrun/internal/domain"
)

// Materialize walks the customer's standing subscription lines and
// returns order items for every line due on the target date, plus the
// order total. An empty result means nothing is due; callers skip
// order creation, it is not an error.
func Materialize(customer *domain.Customer, target time.Time) ([]domain.OrderItem, float64) {
	if customer == nil {
		return nil, 0
	}
	var items []domain.OrderItem
	var total float64
	for i := range customer.Lines {
		line := &customer.Lines[i]
		if !ShouldDeliver(customer, line, target) {
			continue
		}
		name := ""
		if line.Product != nil {
			name = line.Product.Name
		}
		lineTotal := float64(line.Quantity) * line.Price
		items = append(items, domain.OrderItem{
			ProductId:   line.ProductId,
			ProductName: name,
			Size:        line.Size,
			Quantity:    line.Quantity,
			Price:       line.Price,
			TotalPrice:  lineTotal,
		})
		total += lineTotal
	}
	return items, total
}

// ItemInput is one ad hoc line for the custom (one-off) order path.
type ItemInput struct {
	ProductId   int64   `json:"product_id,string"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// MaterializeItems aggregates caller-supplied items with the same
// total rule as the subscription path. Items with quantity < 1 are
// dropped.
func MaterializeItems(inputs []ItemInput) ([]domain.OrderItem, float64) {
	var items []domain.OrderItem
	var total float64
	for _, in := range inputs {
		if in.Quantity < 1 {
			continue
		}
		lineTotal := float64(in.Quantity) * in.Price
		items = append(items, domain.OrderItem{
			ProductId:   in.ProductId,
			ProductName: in.ProductName,
			Size:        in.Size,
			Quantity:    in.Quantity,
			Price:       in.Price,
			TotalPrice:  lineTotal,
		})
		total += lineTotal
	}
	return items, total
}
