package blotter

import "fmt"

// Status is the position of a case in the barangay conciliation process.
type Status string

const (
	StatusFiled        Status = "FILED"
	StatusDocketed     Status = "DOCKETED"
	StatusSummoned     Status = "SUMMONED"
	StatusMediation    Status = "MEDIATION"
	StatusConciliation Status = "CONCILIATION"
	StatusExtended     Status = "EXTENDED"
	StatusCertified    Status = "CERTIFIED"
	StatusResolved     Status = "RESOLVED"
	StatusClosed       Status = "CLOSED"
	StatusDismissed    Status = "DISMISSED"
	StatusEscalated    Status = "ESCALATED"

	// Legacy statuses found on records created before the staged workflow.
	StatusPending Status = "PENDING"
	StatusOngoing Status = "ONGOING"
)

// AllStatuses lists every status in workflow order, legacy statuses last.
var AllStatuses = []Status{
	StatusFiled,
	StatusDocketed,
	StatusSummoned,
	StatusMediation,
	StatusConciliation,
	StatusExtended,
	StatusCertified,
	StatusResolved,
	StatusClosed,
	StatusDismissed,
	StatusEscalated,
	StatusPending,
	StatusOngoing,
}

var terminalStatuses = []Status{StatusResolved, StatusClosed, StatusDismissed, StatusEscalated}

// decision describes how a decision-point status routes on its outcome.
type decision struct {
	outcomeField Field
	onResolved   Status
	onUnresolved Status
}

type rule struct {
	next     []Status
	decision *decision
}

// workflow is the single source of truth for which statuses may follow which.
// Every Status must have an entry; see TestWorkflowCoversAllStatuses.
var workflow = map[Status]rule{
	StatusFiled:    {next: []Status{StatusDocketed}},
	StatusDocketed: {next: []Status{StatusSummoned}},
	StatusSummoned: {next: []Status{StatusMediation}},
	StatusMediation: {
		next: []Status{StatusMediation},
		decision: &decision{
			outcomeField: FieldMediationOutcome,
			onResolved:   StatusResolved,
			onUnresolved: StatusConciliation,
		},
	},
	StatusConciliation: {
		next: []Status{StatusConciliation},
		decision: &decision{
			outcomeField: FieldConciliationOutcome,
			onResolved:   StatusResolved,
			onUnresolved: StatusExtended,
		},
	},
	StatusExtended:  {next: []Status{StatusCertified}},
	StatusCertified: {next: []Status{StatusEscalated}},
	StatusResolved:  {next: terminalStatuses},
	StatusClosed:    {next: terminalStatuses},
	StatusDismissed: {next: terminalStatuses},
	StatusEscalated: {next: terminalStatuses},
	StatusPending:   {next: []Status{StatusFiled, StatusDocketed, StatusSummoned, StatusMediation}},
	StatusOngoing:   {next: []Status{StatusFiled, StatusDocketed, StatusSummoned, StatusMediation}},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := workflow[s]
	return ok
}

// Terminal reports whether s ends the conciliation process.
func (s Status) Terminal() bool {
	for _, t := range terminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Legacy reports whether s predates the staged workflow.
func (s Status) Legacy() bool {
	return s == StatusPending || s == StatusOngoing
}

// DecisionPoint reports whether leaving s requires an outcome selection.
func (s Status) DecisionPoint() bool {
	r, ok := workflow[s]
	return ok && r.decision != nil
}

// AllowedNext returns the statuses that may be requested from current. The
// returned slice is a copy.
func AllowedNext(current Status) []Status {
	r, ok := workflow[current]
	if !ok {
		return nil
	}
	out := make([]Status, len(r.next))
	copy(out, r.next)
	return out
}

// CanTransition reports whether requested is in the allowed-next set of current.
func CanTransition(current, requested Status) bool {
	r, ok := workflow[current]
	if !ok {
		return false
	}
	for _, s := range r.next {
		if s == requested {
			return true
		}
	}
	return false
}

// OutcomeField names the payload field carrying the decision for current, or
// "" when current is not a decision point.
func OutcomeField(current Status) Field {
	if r, ok := workflow[current]; ok && r.decision != nil {
		return r.decision.outcomeField
	}
	return ""
}

// ResolveEffectiveStatus computes where a transition actually lands. For
// decision points the outcome overrides the requested status; everywhere else
// outcome is ignored and the requested status is returned as-is.
func ResolveEffectiveStatus(current, requested Status, outcome string) (Status, error) {
	if !CanTransition(current, requested) {
		return "", &InvalidTransitionError{From: current, To: requested}
	}

	d := workflow[current].decision
	if d == nil {
		return requested, nil
	}

	switch Outcome(outcome) {
	case OutcomeResolved:
		return d.onResolved, nil
	case OutcomeUnresolved:
		return d.onUnresolved, nil
	case "":
		return "", &MissingDecisionError{Status: current, Field: d.outcomeField}
	default:
		return "", &MissingDecisionError{Status: current, Field: d.outcomeField, Value: outcome}
	}
}

func (s Status) String() string { return string(s) }

// ParseStatus converts raw input to a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("blotter: unknown status %q", raw)
	}
	return s, nil
}
