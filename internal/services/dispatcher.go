package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// WorkOrderDispatcher creates remediation work orders for occurrences
// requiring dispatch. Idempotent per occurrence lineage: at most one
// work order ever exists per root occurrence.
type WorkOrderDispatcher struct {
	db *gorm.DB
}

// NewWorkOrderDispatcher creates a new work order dispatcher
func NewWorkOrderDispatcher(db *gorm.DB) *WorkOrderDispatcher {
	return &WorkOrderDispatcher{db: db}
}

// Dispatch creates the work order for an occurrence's root, or returns
// the existing one. Runs against the dispatcher's own connection; the
// coordinator uses DispatchTx inside its atomic transition instead.
func (d *WorkOrderDispatcher) Dispatch(occ *database.Occurrence) (*database.WorkOrder, error) {
	var wo *database.WorkOrder
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		wo, txErr = d.DispatchTx(tx, occ)
		return txErr
	})
	return wo, err
}

// DispatchTx is Dispatch running inside an existing transaction.
func (d *WorkOrderDispatcher) DispatchTx(tx *gorm.DB, occ *database.Occurrence) (*database.WorkOrder, error) {
	root, err := resolveRoot(tx, occ)
	if err != nil {
		return nil, err
	}

	// Return the existing work order if one was already dispatched for
	// this lineage (guards against a coordinator retry double-creating).
	var existing database.WorkOrder
	err = tx.Where("occurrence_id = ?", root.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("work order lookup failed: %w", err)
	}

	wo := &database.WorkOrder{
		UUID:         uuid.New().String(),
		OccurrenceID: root.ID,
		Title:        root.Title,
		Priority:     root.Priority,
		Status:       database.WorkOrderStatusPending,
	}
	if err := tx.Create(wo).Error; err != nil {
		// The unique index on occurrence_id lost a race; the winner's
		// work order is the one to return.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err2 := tx.Where("occurrence_id = ?", root.ID).First(&existing).Error; err2 == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create work order: %w", err)
	}
	return wo, nil
}

// resolveRoot follows parent links so dispatch always lands on the root
// occurrence of the lineage.
func resolveRoot(tx *gorm.DB, occ *database.Occurrence) (*database.Occurrence, error) {
	current := occ
	for current.ParentID != nil {
		var parent database.Occurrence
		if err := tx.First(&parent, *current.ParentID).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve root occurrence: %w", err)
		}
		current = &parent
	}
	return current, nil
}
