package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusOpen        Status = "OPEN"         // Created, nothing applied yet
	StatusCodeApplied Status = "CODE_APPLIED" // Change committed and pushed, tests pending
	StatusTestsPassed Status = "TESTS_PASSED" // Last test run exited 0
	StatusTestsFailed Status = "TESTS_FAILED" // Last test run exited non-zero
	StatusClosed      Status = "CLOSED"       // Terminal
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{
		StatusOpen,
		StatusCodeApplied,
		StatusTestsPassed,
		StatusTestsFailed,
		StatusClosed,
	}
}

// transitions defines the allowed status transitions.
// Flow: OPEN → CODE_APPLIED → TESTS_PASSED | TESTS_FAILED → CLOSED
//
//	              ↑                  │
//	              └──── re-apply ────┘
var transitions = map[Status][]Status{
	StatusOpen:        {StatusCodeApplied, StatusClosed},
	StatusCodeApplied: {StatusCodeApplied, StatusTestsPassed, StatusTestsFailed, StatusClosed},
	StatusTestsPassed: {StatusCodeApplied, StatusTestsPassed, StatusTestsFailed, StatusClosed},
	StatusTestsFailed: {StatusCodeApplied, StatusTestsPassed, StatusTestsFailed, StatusClosed},
	StatusClosed:      {},
}

// CanTransitionTo returns true if the status can transition to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusCodeApplied:
		return "Code Applied"
	case StatusTestsPassed:
		return "Tests Passed"
	case StatusTestsFailed:
		return "Tests Failed"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}
