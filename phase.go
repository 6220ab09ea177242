package session

// Phase is the container's position in the auth lifecycle.
type Phase string

const (
	// PhaseUninitialized holds until the provider's initial state resolves.
	PhaseUninitialized Phase = "uninitialized"
	// PhaseSignedOut means no user record is present.
	PhaseSignedOut Phase = "signed_out"
	// PhaseAuthInProgress means an operation is awaiting its provider call.
	PhaseAuthInProgress Phase = "auth_in_progress"
	// PhaseSignedIn means a named user is present.
	PhaseSignedIn Phase = "signed_in"
	// PhaseAnonymous means an anonymous user is present.
	PhaseAnonymous Phase = "anonymous"
)

// PhaseHook observes phase changes after they are applied.
type PhaseHook func(from, to Phase)

// phaseTransitions is the closed transition table. AuthInProgress can fall
// back to any resting phase because a failed operation restores whatever
// phase it interrupted.
var phaseTransitions = map[Phase][]Phase{
	PhaseUninitialized:  {PhaseSignedOut, PhaseSignedIn, PhaseAnonymous, PhaseAuthInProgress},
	PhaseSignedOut:      {PhaseAuthInProgress, PhaseSignedIn, PhaseAnonymous},
	PhaseSignedIn:       {PhaseAuthInProgress, PhaseSignedOut, PhaseAnonymous},
	PhaseAnonymous:      {PhaseAuthInProgress, PhaseSignedOut, PhaseSignedIn},
	PhaseAuthInProgress: {PhaseUninitialized, PhaseSignedOut, PhaseSignedIn, PhaseAnonymous},
}

// ValidPhase reports whether p is a member of the closed phase set.
func ValidPhase(p Phase) bool {
	_, ok := phaseTransitions[p]
	return ok
}

// CanTransition reports whether the transition table allows from → to.
// Self transitions are allowed; they re-announce the current phase.
func CanTransition(from, to Phase) bool {
	if from == to {
		return ValidPhase(from)
	}
	for _, allowed := range phaseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// restingPhaseFor maps a user record to the phase it should occupy.
func restingPhaseFor(user *User) Phase {
	switch {
	case user == nil:
		return PhaseSignedOut
	case user.IsAnonymous:
		return PhaseAnonymous
	default:
		return PhaseSignedIn
	}
}
