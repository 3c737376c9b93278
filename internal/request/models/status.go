package models

// Status is the blood request state machine.
//
// pending → approved | rejected
// approved → fulfilled
//
// rejected and fulfilled are terminal. approved accepts no further admin
// action through the approval endpoint; fulfillment is a separate step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusFulfilled Status = "fulfilled"
)

var requestTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusFulfilled},
}

// Valid reports whether the status is a defined value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFulfilled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine defines the move.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range requestTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return len(requestTransitions[s]) == 0
}
