package models

// Status is the donation state machine.
//
// pending → approved | rejected | completed
//
// Approval with a donation date jumps straight to completed, which is the
// transition that credits inventory. All three outcomes are terminal for the
// admin endpoint, so a donation can be completed (and credited) at most once.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

var donationTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected, StatusCompleted},
}

// Valid reports whether the status is a defined value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine defines the move.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range donationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return len(donationTransitions[s]) == 0
}
