package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog & people
	&Product{},
	&Customer{},
	&CustomerProduct{},
	&DeliveryBoy{},
	// Orders & billing
	&Order{},
	&OrderItem{},
	&OrderSequence{},
	&Invoice{},
	&InvoiceItem{},
	&Payment{},
	&BottleTransaction{},
	// Messaging & jobs
	&Notification{},
	&OtpCode{},
	&DeliverySchedule{},
}
