package blotter

// Target is one status a transition from a given status can land on, with
// the fields the caller must or may submit to get there.
type Target struct {
	Status   Status
	Via      Outcome
	Required []Field
	Optional []Field
}

// StatusInfo summarises the outgoing rules of a status for form renderers.
type StatusInfo struct {
	Status        Status
	AllowedNext   []Status
	DecisionPoint bool
	OutcomeField  Field
	Terminal      bool
	Legacy        bool
	Targets       []Target
}

// Describe reports the outgoing rules of current. The boolean is false for
// unknown statuses.
func Describe(current Status) (StatusInfo, bool) {
	r, ok := workflow[current]
	if !ok {
		return StatusInfo{}, false
	}

	info := StatusInfo{
		Status:        current,
		AllowedNext:   AllowedNext(current),
		DecisionPoint: r.decision != nil,
		Terminal:      current.Terminal(),
		Legacy:        current.Legacy(),
	}

	if r.decision != nil {
		info.OutcomeField = r.decision.outcomeField
		info.Targets = []Target{
			target(current, r.decision.onResolved, OutcomeResolved),
			target(current, r.decision.onUnresolved, OutcomeUnresolved),
		}
		return info, true
	}

	for _, next := range r.next {
		info.Targets = append(info.Targets, target(current, next, ""))
	}
	return info, true
}

func target(current, effective Status, via Outcome) Target {
	req := RequirementFor(current, effective)
	t := Target{Status: effective, Via: via, Required: req.Required, Optional: req.Optional}
	if via != "" {
		// The outcome field is how the caller picks this target, not an
		// optional extra.
		t.Optional = removeField(t.Optional, OutcomeField(current))
	}
	return t
}

func removeField(fs []Field, f Field) []Field {
	out := fs[:0]
	for _, x := range fs {
		if x != f {
			out = append(out, x)
		}
	}
	return out
}
