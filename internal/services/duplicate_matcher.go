package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// DuplicateMatcher searches recent occurrences on the same asset and
// scores their similarity to a draft. Read-only; safe to call
// repeatedly and speculatively.
type DuplicateMatcher struct {
	db *gorm.DB
}

// NewDuplicateMatcher creates a new duplicate matcher
func NewDuplicateMatcher(db *gorm.DB) *DuplicateMatcher {
	return &DuplicateMatcher{db: db}
}

// FindCandidates returns duplicate candidates for the draft, most
// similar first. Only root occurrences on the same asset reported
// within the recency window are considered; candidates below the
// relevance floor are discarded. An empty result is a normal outcome.
func (m *DuplicateMatcher) FindCandidates(ctx context.Context, draft *IncidentDraft) ([]DuplicateCandidate, error) {
	db := m.db.WithContext(ctx)

	settings, err := database.GetOrCreateMatcherSettings(db)
	if err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("failed to load matcher settings: %v", err))
	}
	if !settings.Enabled {
		return nil, nil
	}

	cutoff := time.Now().AddDate(0, 0, -settings.RecencyWindowDays)

	var recent []database.Occurrence
	err = db.Where("asset_id = ? AND parent_id IS NULL AND last_reported_at >= ?", draft.AssetID, cutoff).
		Order("last_reported_at DESC").
		Find(&recent).Error
	if err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("candidate search failed: %v", err))
	}
	if len(recent) == 0 {
		return nil, nil
	}

	var asset database.Asset
	if err := db.First(&asset, draft.AssetID).Error; err != nil {
		return nil, newWorkflowError(CodeStorageUnavailable, "", fmt.Sprintf("asset lookup failed: %v", err))
	}

	candidates := make([]DuplicateCandidate, 0, len(recent))
	for i := range recent {
		score := ScoreSimilarity(draft, &recent[i], settings)
		if score < settings.RelevanceFloor {
			continue
		}
		candidates = append(candidates, DuplicateCandidate{
			OccurrenceID:   recent[i].ID,
			OccurrenceUUID: recent[i].UUID,
			Title:          recent[i].Title,
			Similarity:     score,
			ReportedAt:     recent[i].LastReportedAt,
			AssetName:      asset.Name,
		})
	}

	// Most similar first; ties broken by recency (the query order is
	// already newest-first and the sort is stable).
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if settings.MaxCandidates > 0 && len(candidates) > settings.MaxCandidates {
		candidates = candidates[:settings.MaxCandidates]
	}

	return candidates, nil
}

// ScoreSimilarity computes the 0-100 similarity between a draft and an
// occurrence. The score is monotonic: more shared symptom tags, closer
// component scope, and higher title overlap never lower it.
func ScoreSimilarity(draft *IncidentDraft, occ *database.Occurrence, settings *database.MatcherSettings) int {
	titleScore := tokenJaccard(tokenizeTitle(draft.Title), tokenizeTitle(occ.Title))
	tagScore := tagJaccard(draft.SymptomTagIDs, occ.SymptomTagIDs)
	scopeScore := componentScopeOverlap(draft, occ)

	score := float64(settings.TitleWeight)*titleScore +
		float64(settings.SymptomTagWeight)*tagScore +
		float64(settings.ComponentWeight)*scopeScore

	return int(score + 0.5)
}

// componentScopeOverlap scores how closely the draft's component scope
// matches the occurrence's. Exact subcomponent match outweighs a
// component-level match; an asset-only match contributes nothing.
func componentScopeOverlap(draft *IncidentDraft, occ *database.Occurrence) float64 {
	if occ.SubcomponentID != nil && containsID(draft.SubcomponentIDs, *occ.SubcomponentID) {
		return 1.0
	}
	if occ.ComponentID != nil && containsID(draft.ComponentIDs, *occ.ComponentID) {
		return 0.6
	}
	return 0
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// tokenizeTitle lowercases the title and splits it into word tokens
func tokenizeTitle(title string) map[string]bool {
	tokens := make(map[string]bool)
	word := strings.Builder{}
	flush := func() {
		if word.Len() > 1 {
			tokens[word.String()] = true
		}
		word.Reset()
	}
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127 {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// tokenJaccard computes Jaccard similarity over token sets
func tokenJaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if b[t] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// tagJaccard computes Jaccard similarity over symptom tag ID sets
func tagJaccard(a, b database.IDList) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for _, id := range a {
		if b.Contains(id) {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
