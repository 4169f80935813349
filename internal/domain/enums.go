package domain

type WorkStatus string

const (
	StatusPending    WorkStatus = "pending"
	StatusInProgress WorkStatus = "in_progress"
	StatusCompleted  WorkStatus = "completed"
)

// StatusForProgress derives a work status from a progress percentage.
// 100 means completed; anything else on an item that has entered the
// pipeline is in_progress. Pending is assigned at creation, never derived.
func StatusForProgress(progress int) WorkStatus {
	if progress == 100 {
		return StatusCompleted
	}
	return StatusInProgress
}

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ValidPriorities is the canonical set of accepted priority strings.
var ValidPriorities = map[string]bool{
	"urgent": true, "high": true, "normal": true, "low": true,
}

type DueBucket string

const (
	DueOverdue DueBucket = "overdue"
	DueToday   DueBucket = "today"
	DueWeek    DueBucket = "week"
)
