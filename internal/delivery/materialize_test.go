package delivery

import (
	"testing"

	"github.com/milkrunhq/milkrun/internal/domain"
)

func TestMaterializeTotals(t *testing.T) {
	c := testCustomer()
	c.Lines = []domain.CustomerProduct{
		{
			CustomerId: c.ID, ProductId: 1,
			Product:  &domain.Product{ID: 1, Name: "Cow Milk"},
			Quantity: 2, Price: 20,
			DeliveryDays: DeliveryDaily,
			StartDate:    day("01/01/2025"), EndDate: day("31/01/2025"),
		},
		{
			CustomerId: c.ID, ProductId: 2,
			Product:  &domain.Product{ID: 2, Name: "Paneer"},
			Quantity: 1, Price: 50,
			DeliveryDays: DeliveryDaily,
			StartDate:    day("01/01/2025"), EndDate: day("31/01/2025"),
		},
		{
			// yet to start, must be excluded
			CustomerId: c.ID, ProductId: 3,
			Product:  &domain.Product{ID: 3, Name: "Curd"},
			Quantity: 4, Price: 25,
			DeliveryDays: DeliveryDaily,
			StartDate:    day("15/01/2025"), EndDate: day("31/01/2025"),
		},
	}

	items, total := Materialize(c, day("05/01/2025"))
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if total != 90 {
		t.Errorf("total = %v, want 90", total)
	}
	if items[0].ProductName != "Cow Milk" || items[0].TotalPrice != 40 {
		t.Errorf("first item wrong: %+v", items[0])
	}
	if items[1].ProductName != "Paneer" || items[1].TotalPrice != 50 {
		t.Errorf("second item wrong: %+v", items[1])
	}
}

func TestMaterializeNothingDue(t *testing.T) {
	c := testCustomer()
	c.Lines = []domain.CustomerProduct{{
		CustomerId: c.ID, ProductId: 1, Quantity: 1, Price: 20,
		DeliveryDays: DeliveryDaily,
		StartDate:    day("01/02/2025"), EndDate: day("28/02/2025"),
	}}
	items, total := Materialize(c, day("05/01/2025"))
	if len(items) != 0 || total != 0 {
		t.Errorf("expected empty result, got %d items total %v", len(items), total)
	}
}

func TestMaterializeItems(t *testing.T) {
	items, total := MaterializeItems([]ItemInput{
		{ProductId: 1, ProductName: "Ghee", Quantity: 2, Price: 250},
		{ProductId: 2, ProductName: "Milk", Quantity: 0, Price: 30}, // dropped
		{ProductId: 3, ProductName: "Curd", Quantity: 1, Price: 40},
	})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if total != 540 {
		t.Errorf("total = %v, want 540", total)
	}
}
