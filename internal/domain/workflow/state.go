package workflow

// State represents a stage in the mission lifecycle
type State string

const (
	StateDraft             State = "DRAFT"
	StatePendingValidation State = "PENDING_VALIDATION"
	StateValidated         State = "VALIDATED"
	StateInProgress        State = "IN_PROGRESS"
	StateReturned          State = "RETURNED"
	StateClosed            State = "CLOSED"
	StateRejected          State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StatePendingValidation: true,
	StateValidated:         true,
	StateInProgress:        true,
	StateReturned:          true,
	StateClosed:            true,
	StateRejected:          true,
}

var terminalStates = map[State]bool{
	StateClosed:   true,
	StateRejected: true,
}

// IsTerminal returns true if the state admits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid mission state
func (s State) IsValid() bool {
	return validStates[s]
}
