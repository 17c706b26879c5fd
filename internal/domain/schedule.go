package domain

import "time"

// Scheduler task types dispatched by the background runner.
const (
	TaskGenerateToday    = "generate_today"
	TaskGenerateTomorrow = "generate_tomorrow"
	TaskRenewMonthly     = "renew_monthly"
	TaskMonthlyInvoices  = "monthly_invoices"
)

// DeliverySchedule is an ops-managed background task row. The runner
// polls enabled rows and dispatches on TaskType; last/next run fields
// give visibility without log spelunking.
type DeliverySchedule struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	TaskType    string    `gorm:"size:50" json:"task_type" form:"task_type"`
	Interval    int       `json:"interval" form:"interval"`
	Status      string    `gorm:"size:16;index" json:"status" form:"status"`
	LastRunAt   time.Time `json:"last_run_at"`
	NextRunAt   time.Time `json:"next_run_at"`
	LastResult  string    `gorm:"size:32" json:"last_result"`
	LastMessage string    `json:"last_message"`
	Remark      string    `json:"remark" form:"remark"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DeliverySchedule) TableName() string {
	return "delivery_schedule"
}
