package database

import "testing"

func TestMatcherSettings_TableName(t *testing.T) {
	s := MatcherSettings{}
	if s.TableName() != "matcher_settings" {
		t.Errorf("expected table name 'matcher_settings', got '%s'", s.TableName())
	}
}

func TestNewDefaultMatcherSettings(t *testing.T) {
	s := NewDefaultMatcherSettings()
	if !s.Enabled {
		t.Error("matcher must be enabled by default")
	}
	if s.RecencyWindowDays != 14 {
		t.Errorf("expected 14 day window, got %d", s.RecencyWindowDays)
	}
	if s.TitleWeight+s.SymptomTagWeight+s.ComponentWeight != 100 {
		t.Errorf("expected weights to sum to 100, got %d", s.TitleWeight+s.SymptomTagWeight+s.ComponentWeight)
	}
	if s.RelevanceFloor != 40 {
		t.Errorf("expected relevance floor 40, got %d", s.RelevanceFloor)
	}
	if s.MaxCandidates != 5 {
		t.Errorf("expected max candidates 5, got %d", s.MaxCandidates)
	}
	if s.CandidateTTLMinutes != 15 {
		t.Errorf("expected candidate TTL 15 minutes, got %d", s.CandidateTTLMinutes)
	}
}

func TestGetOrCreateMatcherSettings_Singleton(t *testing.T) {
	db := setupTestDB(t)

	first, err := GetOrCreateMatcherSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GetOrCreateMatcherSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same settings row, got IDs %d and %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&MatcherSettings{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 settings row, got %d", count)
	}
}

func TestUpdateMatcherSettings(t *testing.T) {
	db := setupTestDB(t)

	settings, err := GetOrCreateMatcherSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	settings.RelevanceFloor = 60
	settings.RecencyWindowDays = 7
	if err := UpdateMatcherSettings(db, settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := GetOrCreateMatcherSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.RelevanceFloor != 60 {
		t.Errorf("expected relevance floor 60, got %d", reloaded.RelevanceFloor)
	}
	if reloaded.RecencyWindowDays != 7 {
		t.Errorf("expected 7 day window, got %d", reloaded.RecencyWindowDays)
	}
}
