package database

import "time"

// WorkOrderStatus represents the status of a remediation work order
type WorkOrderStatus string

const (
	WorkOrderStatusPending   WorkOrderStatus = "pending"
	WorkOrderStatusAssigned  WorkOrderStatus = "assigned"
	WorkOrderStatusCompleted WorkOrderStatus = "completed"
)

// WorkOrder is a remediation order dispatched for a root occurrence.
// The unique index on OccurrenceID is the idempotence anchor: at most
// one work order ever exists per occurrence lineage.
type WorkOrder struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UUID         string          `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	OccurrenceID uint            `gorm:"uniqueIndex;not null" json:"occurrence_id"`
	Title        string          `gorm:"type:varchar(255);not null" json:"title"`
	Priority     Priority        `gorm:"type:varchar(20);not null" json:"priority"`
	Status       WorkOrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Assignee     string          `gorm:"size:128" json:"assignee,omitempty"`
	AssignedBy   string          `gorm:"size:128" json:"assigned_by,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// IsAssigned reports whether the work order has a technician assigned
func (w *WorkOrder) IsAssigned() bool {
	return w.Assignee != ""
}
