package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList is a JSON-serialized ordered list of strings (attachment URLs etc.)
type StringList []string

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// IDList is a JSON-serialized list of numeric identifiers (symptom tag IDs etc.)
type IDList []uint

// Scan implements the sql.Scanner interface
func (l *IDList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for IDList")
	}
}

// Value implements the driver.Valuer interface
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Contains reports whether id is present in the list
func (l IDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// ========== Asset Catalog Models ==========
// The catalog is read-only to the intake workflow. Rows are seeded from
// the catalog YAML file or managed by the surrounding system.

// Asset represents a maintainable asset (machine, line, facility unit)
type Asset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Components []AssetComponent `gorm:"foreignKey:AssetID" json:"components,omitempty"`
}

func (Asset) TableName() string {
	return "assets"
}

// AssetComponent is a component within an asset (e.g. hydraulic unit)
type AssetComponent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"not null;index" json:"asset_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Subcomponents []AssetSubcomponent `gorm:"foreignKey:ComponentID" json:"subcomponents,omitempty"`
}

func (AssetComponent) TableName() string {
	return "asset_components"
}

// AssetSubcomponent is a part within a component (e.g. pump seal)
type AssetSubcomponent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ComponentID uint      `gorm:"not null;index" json:"component_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (AssetSubcomponent) TableName() string {
	return "asset_subcomponents"
}

// SymptomTag is an enumerated symptom descriptor technicians pick from
type SymptomTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Category  string    `gorm:"size:64" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SymptomTag) TableName() string {
	return "symptom_tags"
}

// ========== Severity / Priority ==========

// Severity represents derived occurrence severity (never user-set)
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Priority is the work-order priority inherited from occurrence severity
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityForSeverity maps derived severity to the inherited work-order priority
func PriorityForSeverity(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityUrgent
	case SeverityHigh:
		return PriorityHigh
	case SeverityWarning:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ========== Slack Settings ==========

// SlackSettings stores outbound Slack notification configuration
type SlackSettings struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BotToken        string    `gorm:"type:text" json:"bot_token"`
	DispatchChannel string    `gorm:"type:varchar(255)" json:"dispatch_channel"`
	Enabled         bool      `gorm:"default:false" json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (SlackSettings) TableName() string {
	return "slack_settings"
}

// IsConfigured returns true if the bot token and channel are set
func (s *SlackSettings) IsConfigured() bool {
	return s.BotToken != "" && s.DispatchChannel != ""
}

// IsActive returns true if Slack notifications are enabled and configured
func (s *SlackSettings) IsActive() bool {
	return s.Enabled && s.IsConfigured()
}
