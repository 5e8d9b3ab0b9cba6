package database

import (
	"time"

	"gorm.io/gorm"
)

// MatcherSettings controls duplicate-candidate search behavior.
// Weights are relative contributions to the 0-100 similarity score;
// the scoring contract only requires them to be non-negative so the
// score stays monotonic in every overlap dimension.
type MatcherSettings struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Enabled             bool      `gorm:"default:true" json:"enabled"`
	RecencyWindowDays   int       `gorm:"default:14" json:"recency_window_days"`
	TitleWeight         int       `gorm:"default:40" json:"title_weight"`
	SymptomTagWeight    int       `gorm:"default:35" json:"symptom_tag_weight"`
	ComponentWeight     int       `gorm:"default:25" json:"component_weight"`
	RelevanceFloor      int       `gorm:"default:40" json:"relevance_floor"`
	MaxCandidates       int       `gorm:"default:5" json:"max_candidates"`
	CandidateTTLMinutes int       `gorm:"default:15" json:"candidate_ttl_minutes"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (MatcherSettings) TableName() string {
	return "matcher_settings"
}

// NewDefaultMatcherSettings returns settings with default values
func NewDefaultMatcherSettings() *MatcherSettings {
	return &MatcherSettings{
		Enabled:             true,
		RecencyWindowDays:   14,
		TitleWeight:         40,
		SymptomTagWeight:    35,
		ComponentWeight:     25,
		RelevanceFloor:      40,
		MaxCandidates:       5,
		CandidateTTLMinutes: 15,
	}
}

// GetOrCreateMatcherSettings retrieves or creates matcher settings (singleton).
// Accepts a db parameter to support transaction contexts and testing.
func GetOrCreateMatcherSettings(db *gorm.DB) (*MatcherSettings, error) {
	var settings MatcherSettings
	result := db.First(&settings)
	if result.Error == gorm.ErrRecordNotFound {
		settings = *NewDefaultMatcherSettings()
		if err := db.Create(&settings).Error; err != nil {
			return nil, err
		}
	} else if result.Error != nil {
		return nil, result.Error
	}
	return &settings, nil
}

// UpdateMatcherSettings persists changed matcher settings.
func UpdateMatcherSettings(db *gorm.DB, settings *MatcherSettings) error {
	return db.Save(settings).Error
}
