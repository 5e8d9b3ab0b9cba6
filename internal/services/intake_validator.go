package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/database"
)

const (
	minTitleLength = 5
	maxTitleLength = 100
)

// IntakeValidator normalizes and validates raw submissions into drafts.
// It performs no writes; its only lookups go to the read-only catalog.
type IntakeValidator struct {
	catalog *catalog.Service
}

// NewIntakeValidator creates a new intake validator
func NewIntakeValidator(catalogService *catalog.Service) *IntakeValidator {
	return &IntakeValidator{catalog: catalogService}
}

// ValidateSubmission validates a raw submission and returns a normalized
// draft. All validation happens before any write anywhere in the
// workflow, so a failure here aborts the whole submission cleanly.
func (v *IntakeValidator) ValidateSubmission(req *SubmissionRequest, reportedBy string) (*IncidentDraft, error) {
	asset, err := v.catalog.GetAsset(req.AssetID)
	if err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("asset lookup failed: %v", err))
	}
	if asset == nil || !asset.Active {
		return nil, newWorkflowError(CodeInvalidAsset, "assetId", fmt.Sprintf("asset %d does not exist", req.AssetID))
	}

	title := strings.TrimSpace(req.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLength || n > maxTitleLength {
		return nil, newWorkflowError(CodeInvalidTitle, "title",
			fmt.Sprintf("title must be between %d and %d characters", minTitleLength, maxTitleLength))
	}

	if err := v.validateComponentScope(req, asset.ID); err != nil {
		return nil, err
	}

	tags := normalizeTagSet(req.SymptomTagIDs)
	for _, tagID := range tags {
		ok, err := v.catalog.SymptomTagExists(tagID)
		if err != nil {
			return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("symptom tag lookup failed: %v", err))
		}
		if !ok {
			return nil, newWorkflowError(CodeInvalidSymptomTag, "symptomTagIds",
				fmt.Sprintf("symptom tag %d is not in the vocabulary", tagID))
		}
	}

	draft := &IncidentDraft{
		AssetID:         asset.ID,
		ComponentIDs:    req.ComponentIDs,
		SubcomponentIDs: req.SubcomponentIDs,
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		SymptomTagIDs:   tags,
		CausedDowntime:  req.CausedDowntime,
		IsIntermittent:  req.IsIntermittent,
		IsSafetyRelated: req.IsSafetyRelated,
		IsObservation:   req.IsObservation,
		AttachmentURLs:  req.AttachmentURLs,
		ReportedBy:      reportedBy,
	}

	if req.ResolveImmediately {
		res, err := buildResolution(req)
		if err != nil {
			return nil, err
		}
		draft.Resolution = res
		// Observation and immediate resolution are mutually exclusive;
		// a completed resolution record wins over the observation flag.
		draft.IsObservation = false
	}

	draft.Severity = DeriveSeverity(draft)

	return draft, nil
}

// validateComponentScope ensures every component belongs to the asset
// and every subcomponent belongs to one of the given components.
func (v *IntakeValidator) validateComponentScope(req *SubmissionRequest, assetID uint) error {
	for _, compID := range req.ComponentIDs {
		ok, err := v.catalog.ComponentBelongsToAsset(compID, assetID)
		if err != nil {
			return newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("component lookup failed: %v", err))
		}
		if !ok {
			return newWorkflowError(CodeInvalidComponentScope, "componentIds",
				fmt.Sprintf("component %d does not belong to asset %d", compID, assetID))
		}
	}

	for _, subID := range req.SubcomponentIDs {
		found := false
		for _, compID := range req.ComponentIDs {
			ok, err := v.catalog.SubcomponentBelongsToComponent(subID, compID)
			if err != nil {
				return newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("subcomponent lookup failed: %v", err))
			}
			if ok {
				found = true
				break
			}
		}
		if !found {
			return newWorkflowError(CodeInvalidComponentScope, "subcomponentIds",
				fmt.Sprintf("subcomponent %d is not part of the selected components", subID))
		}
	}

	return nil
}

// buildResolution validates the immediate-resolution fields as a unit
func buildResolution(req *SubmissionRequest) (*DraftResolution, error) {
	diagnosis := strings.TrimSpace(req.Diagnosis)
	action := strings.TrimSpace(req.ActionTaken)
	if diagnosis == "" || action == "" {
		return nil, newWorkflowError(CodeInvalidResolution, "diagnosis",
			"immediate resolution requires both diagnosis and action taken")
	}
	if !database.ValidResolutionOutcome(req.Outcome) {
		return nil, newWorkflowError(CodeInvalidResolution, "outcome",
			"outcome must be one of: worked, partial, failed")
	}
	return &DraftResolution{
		Diagnosis:      diagnosis,
		ActionTaken:    action,
		Outcome:        database.ResolutionOutcome(req.Outcome),
		ElapsedMinutes: req.ElapsedMinutes,
	}, nil
}

// normalizeTagSet deduplicates symptom tag IDs. Order is irrelevant in
// the set, so it is stored sorted for stable comparisons.
func normalizeTagSet(ids []uint) database.IDList {
	seen := make(map[uint]bool, len(ids))
	out := make(database.IDList, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DeriveSeverity computes occurrence severity from the draft flags.
// Severity is always derived, never user-set.
func DeriveSeverity(d *IncidentDraft) database.Severity {
	switch {
	case d.IsSafetyRelated:
		return database.SeverityCritical
	case d.CausedDowntime:
		return database.SeverityHigh
	case d.IsObservation:
		return database.SeverityInfo
	case d.IsIntermittent:
		return database.SeverityWarning
	default:
		return database.SeverityWarning
	}
}
