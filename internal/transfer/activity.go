package transfer

// Icon names for the global transfers affordance.
const (
	ActivityIconIdle    = "sync"
	ActivityIconProblem = "sync_problem"
)

// Activity is the derived summary of all registered transfers, recomputed on
// demand rather than incrementally maintained. Cost is linear in the number
// of transfers, which stays small.
type Activity struct {
	Active  int `json:"active"`
	Errored int `json:"errored"`
}

// Busy reports whether any transfer is still pending.
func (a Activity) Busy() bool {
	return a.Active > 0
}

// Icon returns the indicator icon: the problem variant once any transfer
// has failed.
func (a Activity) Icon() string {
	if a.Errored == 0 {
		return ActivityIconIdle
	}
	return ActivityIconProblem
}

// ComputeActivity scans records and counts pending and errored transfers.
func ComputeActivity(records []Record) Activity {
	var act Activity
	for _, rec := range records {
		if rec.Pending {
			act.Active++
		}
		if rec.Error {
			act.Errored++
		}
	}
	return act
}
