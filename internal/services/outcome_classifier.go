package services

// Outcome is the classification of a newly created occurrence
type Outcome string

const (
	// OutcomeDispatch means a work order must be created
	OutcomeDispatch Outcome = "dispatch"
	// OutcomeObservation means no remediation action is required
	OutcomeObservation Outcome = "observation"
	// OutcomeResolvedImmediately means the problem was fixed at intake
	OutcomeResolvedImmediately Outcome = "resolved_immediately"
)

// ClassifyOutcome decides what happens to a newly created occurrence:
// a mere observation, an incident already resolved on the spot, or one
// requiring a dispatched work order. Pure function of the draft; the
// validator has already enforced that observation and a completed
// resolution are mutually exclusive.
func ClassifyOutcome(draft *IncidentDraft) Outcome {
	if draft.IsObservation {
		return OutcomeObservation
	}
	if draft.Resolution != nil {
		return OutcomeResolvedImmediately
	}
	return OutcomeDispatch
}
