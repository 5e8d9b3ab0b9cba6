package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// WorkOrderService owns work-order management after dispatch:
// assignment and completion. Completion closes the source occurrence in
// the same transaction so an occurrence is never closed without its
// work order also marked completed.
type WorkOrderService struct {
	db *gorm.DB
}

// NewWorkOrderService creates a new work order service
func NewWorkOrderService(db *gorm.DB) *WorkOrderService {
	return &WorkOrderService{db: db}
}

// GetByUUID returns a work order by its public ID
func (s *WorkOrderService) GetByUUID(uuid string) (*database.WorkOrder, error) {
	var wo database.WorkOrder
	if err := s.db.Where("uuid = ?", uuid).First(&wo).Error; err != nil {
		return nil, err
	}
	return &wo, nil
}

// List returns work orders, optionally filtered by status
func (s *WorkOrderService) List(status database.WorkOrderStatus) ([]database.WorkOrder, error) {
	var orders []database.WorkOrder
	query := s.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&orders).Error
	return orders, err
}

// Assign sets the technician on a pending work order. Callers must have
// passed the AssignmentGate first; this is the write, not the check.
func (s *WorkOrderService) Assign(uuid, assignee, assignedBy string) (*database.WorkOrder, error) {
	var wo database.WorkOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&wo).Error; err != nil {
			return err
		}
		if wo.Status == database.WorkOrderStatusCompleted {
			return fmt.Errorf("work order %s is already completed", uuid)
		}
		return tx.Model(&wo).Updates(map[string]interface{}{
			"assignee":    assignee,
			"assigned_by": assignedBy,
			"status":      database.WorkOrderStatusAssigned,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wo, nil
}

// Complete marks the work order completed and closes its occurrence.
// Idempotent: completing an already-completed work order is a no-op.
func (s *WorkOrderService) Complete(uuid string) (*database.WorkOrder, error) {
	var wo database.WorkOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&wo).Error; err != nil {
			return err
		}
		if wo.Status == database.WorkOrderStatusCompleted {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&wo).Updates(map[string]interface{}{
			"status":       database.WorkOrderStatusCompleted,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}
		wo.Status = database.WorkOrderStatusCompleted
		wo.CompletedAt = &now

		// Closed is reachable from the dispatched (open) state only
		// once the work order reports completion.
		res := tx.Model(&database.Occurrence{}).
			Where("id = ? AND status = ?", wo.OccurrenceID, database.OccurrenceStatusOpen).
			Update("status", database.OccurrenceStatusClosed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var occ database.Occurrence
			if err := tx.First(&occ, wo.OccurrenceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("occurrence %d not found for work order %s", wo.OccurrenceID, uuid)
				}
				return err
			}
			if occ.Status != database.OccurrenceStatusClosed {
				return fmt.Errorf("occurrence %d is %s, not open", occ.ID, occ.Status)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wo, nil
}
