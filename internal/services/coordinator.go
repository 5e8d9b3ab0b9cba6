package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// EventPublisher receives workflow events for live feeds. Implementations
// must not block.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// Notifier is invoked after a work order is dispatched. Delivery is
// owned by the surrounding system; failures are logged, never surfaced.
type Notifier interface {
	NotifyDispatch(occ *database.Occurrence, wo *database.WorkOrder)
}

// Workflow event names published on commit
const (
	EventOccurrenceCreated = "occurrence.created"
	EventOccurrenceLinked  = "occurrence.linked"
	EventWorkOrderCreated  = "workorder.created"
)

// ResolutionCoordinator drives a submission through the intake state
// machine: validation, the duplicate check, the operator's link/create
// decision, outcome classification, and conditional dispatch.
//
// The match-then-commit sequence is atomic per asset: a per-asset lock
// is held from the duplicate check through the commit, and all writes
// of one transition share a single database transaction. Two
// submissions racing on the same asset therefore serialize, and the
// second observes the first's occurrence as a duplicate candidate.
type ResolutionCoordinator struct {
	db         *gorm.DB
	validator  *IntakeValidator
	matcher    *DuplicateMatcher
	dispatcher *WorkOrderDispatcher

	locks      *assetLocks
	candidates *candidateCache

	events   EventPublisher // optional
	notifier Notifier       // optional
}

// NewResolutionCoordinator creates a new resolution coordinator
func NewResolutionCoordinator(db *gorm.DB, catalogService *catalog.Service) *ResolutionCoordinator {
	return &ResolutionCoordinator{
		db:         db,
		validator:  NewIntakeValidator(catalogService),
		matcher:    NewDuplicateMatcher(db),
		dispatcher: NewWorkOrderDispatcher(db),
		locks:      newAssetLocks(),
		candidates: newCandidateCache(),
	}
}

// SetEventPublisher attaches a live-feed publisher
func (c *ResolutionCoordinator) SetEventPublisher(p EventPublisher) {
	c.events = p
}

// SetNotifier attaches a dispatch notifier
func (c *ResolutionCoordinator) SetNotifier(n Notifier) {
	c.notifier = n
}

// Submit processes one incident submission and commits exactly one
// outcome: duplicate candidates returned (no write), the report linked
// to an existing root occurrence, or a new occurrence created with its
// classification outcome in the same transaction. Validation failures
// abort before any write.
func (c *ResolutionCoordinator) Submit(ctx context.Context, actor Actor, req *SubmissionRequest) (*SubmissionResult, error) {
	draft, err := c.validator.ValidateSubmission(req, actor.Username)
	if err != nil {
		return nil, err
	}

	// Serialize match-then-commit per asset. Holding the lock across
	// the duplicate check and the commit is what keeps two concurrent
	// reports of the same problem from both creating root occurrences.
	unlock := c.locks.Lock(draft.AssetID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", "submission cancelled before commit")
	}

	if req.LinkToOccurrenceID != "" {
		return c.linkToExisting(ctx, actor, draft, req.LinkToOccurrenceID)
	}

	if !req.ForceCreate {
		candidates, err := c.matcher.FindCandidates(ctx, draft)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			c.rememberCandidates(ctx, draft.AssetID, candidates)
			return &SubmissionResult{HasDuplicates: true, Candidates: candidates}, nil
		}
	}

	return c.createNew(ctx, draft)
}

// rememberCandidates records the returned candidate set so a follow-up
// link submission can be checked for freshness.
func (c *ResolutionCoordinator) rememberCandidates(ctx context.Context, assetID uint, candidates []DuplicateCandidate) {
	ttl := 15 * time.Minute
	if settings, err := database.GetOrCreateMatcherSettings(c.db.WithContext(ctx)); err == nil && settings.CandidateTTLMinutes > 0 {
		ttl = time.Duration(settings.CandidateTTLMinutes) * time.Minute
	}
	c.candidates.Put(assetID, candidates, ttl)
}

// linkToExisting appends the draft's content to the designated root
// occurrence's history and records the join event. No new occurrence
// row is created; this is the mechanism preventing duplicate open cases.
func (c *ResolutionCoordinator) linkToExisting(ctx context.Context, actor Actor, draft *IncidentDraft, targetUUID string) (*SubmissionResult, error) {
	db := c.db.WithContext(ctx)

	var target database.Occurrence
	err := db.Where("uuid = ? AND asset_id = ?", targetUUID, draft.AssetID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newWorkflowError(CodeCandidateNotFound, "linkToOccurrenceId",
			fmt.Sprintf("occurrence %s is not a known candidate for this asset", targetUUID))
	}
	if err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("candidate lookup failed: %v", err))
	}

	// The designated candidate must be among the ones most recently
	// returned for this asset; anything else is stale client state.
	similarity, ok := c.candidates.Lookup(draft.AssetID, target.ID)
	if !ok {
		return nil, newWorkflowError(CodeCandidateNotFound, "linkToOccurrenceId",
			fmt.Sprintf("occurrence %s was not among the candidates most recently returned for this asset", targetUUID))
	}

	// All downstream action happens on the root of the lineage.
	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		root, err := resolveRoot(tx, &target)
		if err != nil {
			return err
		}
		target = *root

		report := &database.OccurrenceReport{
			OccurrenceID:    root.ID,
			Title:           draft.Title,
			Description:     draft.Description,
			SymptomTagIDs:   draft.SymptomTagIDs,
			AttachmentURLs:  draft.AttachmentURLs,
			CausedDowntime:  draft.CausedDowntime,
			IsIntermittent:  draft.IsIntermittent,
			IsSafetyRelated: draft.IsSafetyRelated,
			ReportedBy:      draft.ReportedBy,
			ReportedAt:      now,
		}
		if err := tx.Create(report).Error; err != nil {
			return err
		}

		link := &database.OccurrenceLink{
			OccurrenceID: root.ID,
			ReportID:     report.ID,
			Similarity:   similarity,
			LinkedBy:     draft.ReportedBy,
		}
		if err := tx.Create(link).Error; err != nil {
			return err
		}

		return tx.Model(&database.Occurrence{}).Where("id = ?", root.ID).Updates(map[string]interface{}{
			"report_count":     gorm.Expr("report_count + 1"),
			"last_reported_at": now,
		}).Error
	})
	if err != nil {
		return nil, translateStorageError(err)
	}

	c.candidates.Invalidate(draft.AssetID)
	c.publish(EventOccurrenceLinked, map[string]interface{}{
		"occurrence_uuid": target.UUID,
		"linked_by":       actor.Username,
	})
	log.Printf("Linked report by %s to occurrence %s (similarity: %d)", draft.ReportedBy, target.UUID, similarity)

	return &SubmissionResult{
		WasLinkedToExisting:    true,
		LinkedToOccurrenceUUID: target.UUID,
	}, nil
}

// createNew creates exactly one occurrence and commits its
// classification outcome (observation, resolved immediately, or
// dispatched) in the same transaction.
func (c *ResolutionCoordinator) createNew(ctx context.Context, draft *IncidentDraft) (*SubmissionResult, error) {
	db := c.db.WithContext(ctx)
	outcome := ClassifyOutcome(draft)
	now := time.Now()

	occ := &database.Occurrence{
		UUID:            uuid.New().String(),
		AssetID:         draft.AssetID,
		Title:           draft.Title,
		Description:     draft.Description,
		SymptomTagIDs:   draft.SymptomTagIDs,
		Severity:        draft.Severity,
		Priority:        database.PriorityForSeverity(draft.Severity),
		CausedDowntime:  draft.CausedDowntime,
		IsIntermittent:  draft.IsIntermittent,
		IsSafetyRelated: draft.IsSafetyRelated,
		IsObservation:   draft.IsObservation,
		ReportedBy:      draft.ReportedBy,
		ReportCount:     1,
		LastReportedAt:  now,
	}
	if len(draft.ComponentIDs) > 0 {
		occ.ComponentID = &draft.ComponentIDs[0]
	}
	if len(draft.SubcomponentIDs) > 0 {
		occ.SubcomponentID = &draft.SubcomponentIDs[0]
	}

	switch outcome {
	case OutcomeObservation:
		occ.Status = database.OccurrenceStatusObservation
	case OutcomeResolvedImmediately:
		occ.Status = database.OccurrenceStatusResolved
		occ.ResolutionDiagnosis = draft.Resolution.Diagnosis
		occ.ResolutionAction = draft.Resolution.ActionTaken
		occ.ResolutionOutcome = draft.Resolution.Outcome
		occ.ResolutionElapsedMinutes = draft.Resolution.ElapsedMinutes
		occ.ResolvedAt = &now
	default:
		occ.Status = database.OccurrenceStatusOpen
	}

	var workOrder *database.WorkOrder
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(occ).Error; err != nil {
			return err
		}

		report := &database.OccurrenceReport{
			OccurrenceID:    occ.ID,
			Title:           draft.Title,
			Description:     draft.Description,
			SymptomTagIDs:   draft.SymptomTagIDs,
			AttachmentURLs:  draft.AttachmentURLs,
			CausedDowntime:  draft.CausedDowntime,
			IsIntermittent:  draft.IsIntermittent,
			IsSafetyRelated: draft.IsSafetyRelated,
			ReportedBy:      draft.ReportedBy,
			ReportedAt:      now,
		}
		if err := tx.Create(report).Error; err != nil {
			return err
		}

		if outcome == OutcomeDispatch {
			wo, err := c.dispatcher.DispatchTx(tx, occ)
			if err != nil {
				return err
			}
			workOrder = wo
		}
		return nil
	})
	if err != nil {
		return nil, translateStorageError(err)
	}

	c.candidates.Invalidate(draft.AssetID)
	c.publish(EventOccurrenceCreated, map[string]interface{}{
		"occurrence_uuid": occ.UUID,
		"asset_id":        occ.AssetID,
		"status":          occ.Status,
		"severity":        occ.Severity,
	})
	if workOrder != nil {
		c.publish(EventWorkOrderCreated, map[string]interface{}{
			"work_order_uuid": workOrder.UUID,
			"occurrence_uuid": occ.UUID,
			"priority":        workOrder.Priority,
		})
		if c.notifier != nil {
			go c.notifier.NotifyDispatch(occ, workOrder)
		}
	}
	log.Printf("Created occurrence %s (status: %s, severity: %s)", occ.UUID, occ.Status, occ.Severity)

	return &SubmissionResult{
		Occurrence:          occ,
		WorkOrder:           workOrder,
		IsObservation:       occ.Status == database.OccurrenceStatusObservation,
		ResolvedImmediately: occ.Status == database.OccurrenceStatusResolved,
	}, nil
}

func (c *ResolutionCoordinator) publish(event string, payload interface{}) {
	if c.events != nil {
		c.events.Publish(event, payload)
	}
}

// translateStorageError maps storage failures onto the workflow error
// taxonomy: unique-key races become concurrent_conflict (safe to retry;
// the winner's occurrence will surface as a candidate), everything else
// becomes storage_unavailable (safe to retry, nothing was committed).
func translateStorageError(err error) error {
	if we, ok := AsWorkflowError(err); ok {
		return we
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newWorkflowError(CodeConcurrentConflict, "", "the submission lost a race with a concurrent report; retry to see it as a duplicate candidate")
	}
	return newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("storage failure, nothing was committed: %v", err))
}
