package vision

// Status is the lifecycle state of a vision session.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a session may move from one status to another.
// Only processing -> completed and processing -> failed are allowed.
func CanTransition(from, to Status) bool {
	return from == StatusProcessing && (to == StatusCompleted || to == StatusFailed)
}
