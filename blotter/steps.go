package blotter

// Step is one entry of the case progress tracker.
type Step struct {
	Index     int
	Label     string
	Status    Status
	Completed bool
	Current   bool
	Skipped   bool
}

var stepOrder = []struct {
	label  string
	status Status
}{
	{"Filing", StatusFiled},
	{"Docketing", StatusDocketed},
	{"Summons", StatusSummoned},
	{"Mediation", StatusMediation},
	{"Conciliation", StatusConciliation},
	{"Extension", StatusExtended},
	{"Certification to File Action", StatusCertified},
	{"Escalation", StatusEscalated},
	{"Resolution", StatusResolved},
}

// StepIndex maps a status onto the 1-based position of the progress tracker.
// Legacy statuses map onto the stage they bridge into.
func StepIndex(s Status) int {
	switch s {
	case StatusPending:
		return 1
	case StatusOngoing:
		return 4
	case StatusClosed, StatusDismissed:
		return len(stepOrder)
	}
	for i, st := range stepOrder {
		if st.status == s {
			return i + 1
		}
	}
	return 0
}

// ComputeDisplaySteps derives the progress tracker from the case as stored.
// It keeps no state of its own.
func ComputeDisplaySteps(c Case) []Step {
	idx := StepIndex(c.Status)
	terminal := c.Status.Terminal()

	steps := make([]Step, len(stepOrder))
	for i, st := range stepOrder {
		n := i + 1
		step := Step{Index: n, Label: st.label, Status: st.status}
		switch {
		case n == idx:
			step.Current = true
			step.Completed = terminal
		case !terminal:
			step.Completed = n < idx
		case stageReached(c, n):
			step.Completed = true
		default:
			step.Skipped = true
		}
		steps[i] = step
	}
	return steps
}

// stageReached reports whether the case carries evidence of passing step n.
func stageReached(c Case, n int) bool {
	switch n {
	case 1:
		return true
	case 2:
		return c.DocketDate != nil
	case 3:
		return c.SummonDate != nil
	case 4:
		return c.MediationStartDate != nil
	case 5:
		return c.ConciliationStartDate != nil
	case 6:
		return c.ExtensionDate != nil
	case 7:
		return c.CertificationDate != nil
	case 8:
		return c.Status == StatusEscalated
	default:
		return c.Status == StatusResolved || c.Status == StatusClosed || c.Status == StatusDismissed
	}
}
