package domain

// ActionState is the terminal disposition of one unfollow action within a
// batch run. Retry handling happens inside the executor; only settled states
// appear in reports.
type ActionState string

const (
	ActionSucceeded ActionState = "succeeded"
	ActionSkipped   ActionState = "skipped"
	ActionFailed    ActionState = "failed"
	ActionUntouched ActionState = "untouched"
)

// ActionResult records how one candidate ended up, with enough context
// (username, id, attempts) to support a manual retry.
type ActionResult struct {
	User     UserRef
	State    ActionState
	Attempts int
	Err      error
}

// StopReason explains why a batch ended.
type StopReason string

const (
	StopCompleted      StopReason = "completed"
	StopDailyCap       StopReason = "daily_cap_reached"
	StopSessionLost    StopReason = "session_lost"
	StopContextDone    StopReason = "canceled"
	StopNothingPending StopReason = "nothing_to_do"
)
