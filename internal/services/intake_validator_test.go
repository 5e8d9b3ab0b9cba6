package services

import (
	"strings"
	"testing"

	"github.com/opsdeck/opsdeck/internal/catalog"
	"github.com/opsdeck/opsdeck/internal/database"
)

func TestValidateSubmission_UnknownAsset(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID: 999,
		Title:   "Hydraulic fluid leaking near pump",
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidAsset) {
		t.Fatalf("expected invalid_asset, got %v", err)
	}
}

func TestValidateSubmission_InactiveAsset(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	inactive := &database.Asset{Code: "OLD-01", Name: "Retired Press", Active: false}
	if err := db.Create(inactive).Error; err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}

	v := NewIntakeValidator(catalog.NewService(db))
	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID: inactive.ID,
		Title:   "Hydraulic fluid leaking near pump",
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidAsset) {
		t.Fatalf("expected invalid_asset for inactive asset, got %v", err)
	}
}

func TestValidateSubmission_TitleBounds(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	cases := []struct {
		name  string
		title string
		valid bool
	}{
		{"too short", "hum", false},
		{"whitespace padding ignored", "    ab    ", false},
		{"minimum length", "leaky", true},
		{"normal", "Hydraulic fluid leaking near pump", true},
		{"maximum length", strings.Repeat("a", 100), true},
		{"too long", strings.Repeat("a", 101), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.ValidateSubmission(&SubmissionRequest{
				AssetID: asset.ID,
				Title:   tc.title,
			}, "tech-1")
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && !ErrorHasCode(err, CodeInvalidTitle) {
				t.Errorf("expected invalid_title, got %v", err)
			}
		})
	}
}

func TestValidateSubmission_TitleLengthCountsRunes(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	// 5 runes but more than 5 bytes.
	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID: asset.ID,
		Title:   "übrüg",
	}, "tech-1")
	if err != nil {
		t.Fatalf("expected multibyte title of 5 runes to pass, got %v", err)
	}
}

func TestValidateSubmission_ComponentScope(t *testing.T) {
	db := setupTestDB(t)
	asset, comp, sub := seedCatalog(t, db)

	otherAsset := &database.Asset{Code: "CNC-02", Name: "CNC Mill 02", Active: true}
	if err := db.Create(otherAsset).Error; err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}
	foreignComp := &database.AssetComponent{AssetID: otherAsset.ID, Name: "Coolant System"}
	if err := db.Create(foreignComp).Error; err != nil {
		t.Fatalf("failed to create component: %v", err)
	}

	v := NewIntakeValidator(catalog.NewService(db))

	// A component of another asset is out of scope.
	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:      asset.ID,
		Title:        "Hydraulic fluid leaking near pump",
		ComponentIDs: []uint{foreignComp.ID},
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidComponentScope) {
		t.Fatalf("expected invalid_component_scope for foreign component, got %v", err)
	}

	// A subcomponent without its parent component selected is out of scope.
	_, err = v.ValidateSubmission(&SubmissionRequest{
		AssetID:         asset.ID,
		Title:           "Hydraulic fluid leaking near pump",
		SubcomponentIDs: []uint{sub.ID},
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidComponentScope) {
		t.Fatalf("expected invalid_component_scope for orphan subcomponent, got %v", err)
	}

	// The full valid hierarchy passes.
	draft, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:         asset.ID,
		Title:           "Hydraulic fluid leaking near pump",
		ComponentIDs:    []uint{comp.ID},
		SubcomponentIDs: []uint{sub.ID},
	}, "tech-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(draft.ComponentIDs) != 1 || draft.ComponentIDs[0] != comp.ID {
		t.Errorf("draft lost component scope: %v", draft.ComponentIDs)
	}
}

func TestValidateSubmission_NormalizesTagSet(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	draft, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:       asset.ID,
		Title:         "Hydraulic fluid leaking near pump",
		SymptomTagIDs: []uint{3, 1, 3, 0, 1, 2},
	}, "tech-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := database.IDList{1, 2, 3}
	if len(draft.SymptomTagIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, draft.SymptomTagIDs)
	}
	for i := range want {
		if draft.SymptomTagIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, draft.SymptomTagIDs)
		}
	}
}

func TestValidateSubmission_UnknownSymptomTag(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:       asset.ID,
		Title:         "Hydraulic fluid leaking near pump",
		SymptomTagIDs: []uint{1, 999},
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidSymptomTag) {
		t.Fatalf("expected invalid_symptom_tag, got %v", err)
	}
	we, _ := AsWorkflowError(err)
	if we.Field != "symptomTagIds" {
		t.Errorf("expected field symptomTagIds, got %q", we.Field)
	}
}

func TestValidateSubmission_ResolutionFields(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	// Missing action taken.
	_, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:            asset.ID,
		Title:              "Conveyor belt jammed at infeed",
		ResolveImmediately: true,
		Diagnosis:          "Film wrapped around roller",
		Outcome:            "worked",
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidResolution) {
		t.Fatalf("expected invalid_resolution for missing action, got %v", err)
	}

	// Unknown outcome.
	_, err = v.ValidateSubmission(&SubmissionRequest{
		AssetID:            asset.ID,
		Title:              "Conveyor belt jammed at infeed",
		ResolveImmediately: true,
		Diagnosis:          "Film wrapped around roller",
		ActionTaken:        "Removed film",
		Outcome:            "kinda",
	}, "tech-1")
	if !ErrorHasCode(err, CodeInvalidResolution) {
		t.Fatalf("expected invalid_resolution for unknown outcome, got %v", err)
	}

	// Complete resolution passes.
	draft, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:            asset.ID,
		Title:              "Conveyor belt jammed at infeed",
		ResolveImmediately: true,
		Diagnosis:          "Film wrapped around roller",
		ActionTaken:        "Removed film",
		Outcome:            "partial",
		ElapsedMinutes:     15,
	}, "tech-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Resolution == nil {
		t.Fatal("expected resolution on draft")
	}
	if draft.Resolution.Outcome != database.ResolutionOutcomePartial {
		t.Errorf("expected outcome partial, got %s", draft.Resolution.Outcome)
	}
}

func TestValidateSubmission_ResolutionOverridesObservation(t *testing.T) {
	db := setupTestDB(t)
	asset, _, _ := seedCatalog(t, db)
	v := NewIntakeValidator(catalog.NewService(db))

	draft, err := v.ValidateSubmission(&SubmissionRequest{
		AssetID:            asset.ID,
		Title:              "Conveyor belt jammed at infeed",
		IsObservation:      true,
		ResolveImmediately: true,
		Diagnosis:          "Film wrapped around roller",
		ActionTaken:        "Removed film",
		Outcome:            "worked",
	}, "tech-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.IsObservation {
		t.Error("a completed resolution must clear the observation flag")
	}
	if draft.Resolution == nil {
		t.Error("expected resolution to survive")
	}
}

func TestDeriveSeverity(t *testing.T) {
	cases := []struct {
		name  string
		draft IncidentDraft
		want  database.Severity
	}{
		{"safety wins over everything", IncidentDraft{IsSafetyRelated: true, CausedDowntime: true, IsObservation: true}, database.SeverityCritical},
		{"downtime beats observation", IncidentDraft{CausedDowntime: true, IsObservation: true}, database.SeverityHigh},
		{"observation", IncidentDraft{IsObservation: true}, database.SeverityInfo},
		{"intermittent", IncidentDraft{IsIntermittent: true}, database.SeverityWarning},
		{"plain report", IncidentDraft{}, database.SeverityWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveSeverity(&tc.draft); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
