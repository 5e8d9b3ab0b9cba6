package services

import (
	"time"

	"github.com/opsdeck/opsdeck/internal/database"
)

// SubmissionRequest is the wire shape of a quick report. A first
// submission carries only the report fields; a follow-up submission
// resumes the checked transition with ForceCreate or LinkToOccurrenceID.
type SubmissionRequest struct {
	AssetID         uint   `json:"assetId"`
	ComponentIDs    []uint `json:"componentIds,omitempty"`
	SubcomponentIDs []uint `json:"subcomponentIds,omitempty"`

	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	SymptomTagIDs []uint `json:"symptomTagIds,omitempty"`

	CausedDowntime  bool `json:"causedDowntime"`
	IsIntermittent  bool `json:"isIntermittent"`
	IsSafetyRelated bool `json:"isSafetyRelated"`
	IsObservation   bool `json:"isObservation"`

	AttachmentURLs []string `json:"attachmentUrls,omitempty"`

	ResolveImmediately bool   `json:"resolveImmediately"`
	Diagnosis          string `json:"diagnosis,omitempty"`
	ActionTaken        string `json:"actionTaken,omitempty"`
	Outcome            string `json:"outcome,omitempty"`
	ElapsedMinutes     int    `json:"elapsedMinutes,omitempty"`

	// ForceCreate bypasses the duplicate check (a human already reviewed
	// and rejected the candidates).
	ForceCreate bool `json:"forceCreate,omitempty"`
	// LinkToOccurrenceID designates a previously returned candidate as
	// the match for this report.
	LinkToOccurrenceID string `json:"linkToOccurrenceId,omitempty"`
}

// DraftResolution holds a completed on-the-spot fix carried by a draft
type DraftResolution struct {
	Diagnosis      string
	ActionTaken    string
	Outcome        database.ResolutionOutcome
	ElapsedMinutes int
}

// IncidentDraft is a validated, normalized submission. It is ephemeral:
// within one request it either becomes a link event or a new occurrence.
type IncidentDraft struct {
	AssetID         uint
	ComponentIDs    []uint
	SubcomponentIDs []uint

	Title         string
	Description   string
	SymptomTagIDs database.IDList

	CausedDowntime  bool
	IsIntermittent  bool
	IsSafetyRelated bool
	IsObservation   bool

	AttachmentURLs []string

	// Resolution is non-nil only when the draft carries a completed
	// on-the-spot fix. Mutually exclusive with IsObservation.
	Resolution *DraftResolution

	Severity   database.Severity
	ReportedBy string
}

// DuplicateCandidate is a read-only projection of a recent occurrence
// plus its similarity to the current draft. Computed per request, never
// persisted.
type DuplicateCandidate struct {
	OccurrenceID   uint      `json:"-"`
	OccurrenceUUID string    `json:"occurrenceId"`
	Title          string    `json:"title"`
	Similarity     int       `json:"similarity"`
	ReportedAt     time.Time `json:"reportedAt"`
	AssetName      string    `json:"assetName"`
}

// SubmissionResult is the outcome of one submission, discriminated by
// which fields are set.
type SubmissionResult struct {
	// Duplicate candidates were found; nothing was persisted. The caller
	// must resubmit with forceCreate or linkToOccurrenceId.
	HasDuplicates bool
	Candidates    []DuplicateCandidate

	// The report was appended to an existing root occurrence.
	WasLinkedToExisting    bool
	LinkedToOccurrenceUUID string

	// A new occurrence was created.
	Occurrence          *database.Occurrence
	WorkOrder           *database.WorkOrder
	IsObservation       bool
	ResolvedImmediately bool
}

// Actor is the authenticated user driving a submission
type Actor struct {
	Username     string
	Role         string
	Capabilities []string
}

// HasCapability reports whether the actor holds an explicit capability
func (a Actor) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
