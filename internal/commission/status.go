package commission

// Status is the lifecycle state of a commission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusBlocked    Status = "blocked"
	StatusDispatched Status = "dispatched"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the lifecycle graph. Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusPending:    {StatusDispatched, StatusBlocked, StatusCancelled},
	StatusBlocked:    {StatusPending, StatusCancelled},
	StatusDispatched: {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusCancelled},
}

// Valid reports whether s is one of the seven known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusBlocked, StatusDispatched, StatusInProgress,
		StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing edges.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// AllowedTargets returns the statuses reachable from s in the lifecycle
// graph. Terminal statuses return nil.
func AllowedTargets(s Status) []Status {
	return transitions[s]
}

// ValidateTransition checks the from -> to edge against the lifecycle graph.
// Validation alone has no side effects and may be called repeatedly.
func ValidateTransition(from, to Status) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to, Allowed: transitions[from]}
}
