package loan

// The transition table is intentionally permissive: the only restriction
// carried over from the business rules is that a rejected loan can only be
// reopened to pending. Tightening the policy is a table edit, not a code
// change.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted},
	StatusApproved:  {StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted},
	StatusDisbursed: {StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted},
	StatusCompleted: {StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted},
	StatusRejected:  {StatusPending},
	StatusDefaulted: {StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted},
}

func IsValidStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}

func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
