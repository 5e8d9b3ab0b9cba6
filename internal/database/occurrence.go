package database

import (
	"time"

	"gorm.io/gorm"
)

// OccurrenceStatus represents the status of an occurrence
type OccurrenceStatus string

const (
	// OccurrenceStatusOpen means a work order was dispatched and remediation is pending
	OccurrenceStatusOpen OccurrenceStatus = "open"
	// OccurrenceStatusObservation means the report was an observation requiring no action
	OccurrenceStatusObservation OccurrenceStatus = "observation"
	// OccurrenceStatusResolved means the problem was fixed on the spot at intake
	OccurrenceStatusResolved OccurrenceStatus = "resolved"
	// OccurrenceStatusClosed means the dispatched work order reported completion
	OccurrenceStatusClosed OccurrenceStatus = "closed"
)

// ResolutionOutcome describes how an on-the-spot fix turned out
type ResolutionOutcome string

const (
	ResolutionOutcomeWorked  ResolutionOutcome = "worked"
	ResolutionOutcomePartial ResolutionOutcome = "partial"
	ResolutionOutcomeFailed  ResolutionOutcome = "failed"
)

// ValidResolutionOutcome reports whether s is a known resolution outcome
func ValidResolutionOutcome(s string) bool {
	switch ResolutionOutcome(s) {
	case ResolutionOutcomeWorked, ResolutionOutcomePartial, ResolutionOutcomeFailed:
		return true
	}
	return false
}

// Occurrence is the durable record of one reported problem on an asset.
// Linked duplicate reports append OccurrenceReport rows to the root
// occurrence instead of creating new Occurrence rows.
type Occurrence struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UUID           string           `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	AssetID        uint             `gorm:"not null;index" json:"asset_id"`
	ComponentID    *uint            `gorm:"index" json:"component_id,omitempty"`
	SubcomponentID *uint            `json:"subcomponent_id,omitempty"`
	Title          string           `gorm:"type:varchar(255);not null" json:"title"`
	Description    string           `gorm:"type:text" json:"description"`
	SymptomTagIDs  IDList           `gorm:"type:text" json:"symptom_tag_ids"`
	Severity       Severity         `gorm:"type:varchar(20);not null" json:"severity"`
	Priority       Priority         `gorm:"type:varchar(20);not null" json:"priority"`
	Status         OccurrenceStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CausedDowntime  bool `gorm:"default:false" json:"caused_downtime"`
	IsIntermittent  bool `gorm:"default:false" json:"is_intermittent"`
	IsSafetyRelated bool `gorm:"default:false" json:"is_safety_related"`
	IsObservation   bool `gorm:"default:false" json:"is_observation"`

	// ParentID is set for occurrences linked under another root by the
	// surrounding system. Non-root occurrences are never dispatch targets.
	ParentID *uint `gorm:"index" json:"parent_id,omitempty"`

	ReportedBy     string    `gorm:"size:128" json:"reported_by"`
	ReportCount    int       `gorm:"default:1" json:"report_count"`
	LastReportedAt time.Time `gorm:"index" json:"last_reported_at"`

	// On-the-spot resolution, set only for resolved/closed occurrences
	ResolutionDiagnosis      string            `gorm:"type:text" json:"resolution_diagnosis,omitempty"`
	ResolutionAction         string            `gorm:"type:text" json:"resolution_action,omitempty"`
	ResolutionOutcome        ResolutionOutcome `gorm:"type:varchar(20)" json:"resolution_outcome,omitempty"`
	ResolutionElapsedMinutes int               `json:"resolution_elapsed_minutes,omitempty"`
	ResolvedAt               *time.Time        `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Reports []OccurrenceReport `gorm:"foreignKey:OccurrenceID" json:"reports,omitempty"`
}

func (Occurrence) TableName() string {
	return "occurrences"
}

// BeforeCreate hook stamps LastReportedAt for fresh occurrences
func (o *Occurrence) BeforeCreate(tx *gorm.DB) error {
	if o.LastReportedAt.IsZero() {
		o.LastReportedAt = time.Now()
	}
	return nil
}

// IsRoot reports whether this occurrence is a valid dispatch/resolution target
func (o *Occurrence) IsRoot() bool {
	return o.ParentID == nil
}

// IsOpen reports whether the occurrence still awaits remediation
func (o *Occurrence) IsOpen() bool {
	return o.Status == OccurrenceStatusOpen
}

// OccurrenceReport is one intake that landed on an occurrence: the
// initial report plus every linked duplicate report afterwards.
type OccurrenceReport struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OccurrenceID   uint       `gorm:"not null;index" json:"occurrence_id"`
	Title          string     `gorm:"type:varchar(255);not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	SymptomTagIDs  IDList     `gorm:"type:text" json:"symptom_tag_ids"`
	AttachmentURLs StringList `gorm:"type:text" json:"attachment_urls"`

	CausedDowntime  bool `gorm:"default:false" json:"caused_downtime"`
	IsIntermittent  bool `gorm:"default:false" json:"is_intermittent"`
	IsSafetyRelated bool `gorm:"default:false" json:"is_safety_related"`

	ReportedBy string    `gorm:"size:128" json:"reported_by"`
	ReportedAt time.Time `gorm:"not null;index" json:"reported_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OccurrenceReport) TableName() string {
	return "occurrence_reports"
}

// OccurrenceLink records a duplicate report being joined to an existing
// root occurrence. Audit trail for link decisions, whether the candidate
// was picked by the reporting operator or by the surrounding system.
type OccurrenceLink struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OccurrenceID uint      `gorm:"not null;index" json:"occurrence_id"` // The root that absorbed the report
	ReportID     uint      `gorm:"not null;index" json:"report_id"`     // The appended report row
	Similarity   int       `json:"similarity"`                          // Matcher score at link time, 0-100
	LinkedBy     string    `gorm:"type:varchar(128);not null" json:"linked_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (OccurrenceLink) TableName() string {
	return "occurrence_links"
}
