package workflow

// BuildMissionStateMachine creates a state machine configured with the mission
// lifecycle, positioned at the given state.
//
//	DRAFT -> PENDING_VALIDATION -> VALIDATED -> IN_PROGRESS -> RETURNED -> CLOSED
//	                 \-> REJECTED
func BuildMissionStateMachine(initialState State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingValidation)

	builder.Configure(StatePendingValidation).
		Permit(TriggerApprove, StateValidated).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateValidated).
		Permit(TriggerDepart, StateInProgress)

	builder.Configure(StateInProgress).
		Permit(TriggerDeclareReturn, StateReturned)

	builder.Configure(StateReturned).
		Permit(TriggerClose, StateClosed)

	// CLOSED and REJECTED are terminal, no outgoing transitions

	return builder.Build(initialState)
}
