package injector

// State is the phase a tick reached.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateResolving
	StateMutating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateResolving:
		return "resolving"
	case StateMutating:
		return "mutating"
	default:
		return "unknown"
	}
}

// Outcome summarizes what a tick did.
type Outcome int

const (
	// OutcomeIdle means nothing to do: injection disabled or marker already present.
	OutcomeIdle Outcome = iota
	// OutcomeNotReady means the target container is not on the page.
	OutcomeNotReady
	// OutcomeInjected means the badge was placed.
	OutcomeInjected
	// OutcomeFailed means the tick stopped on an error; see TickResult.Err.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeNotReady:
		return "not-ready"
	case OutcomeInjected:
		return "injected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TickResult is the typed result of one tick. The loop logs it and carries on.
type TickResult struct {
	Outcome Outcome
	// State is where the tick stopped.
	State State
	AppID string
	Tier  string
	Err   error
}

func failed(state State, appID string, err error) TickResult {
	return TickResult{Outcome: OutcomeFailed, State: state, AppID: appID, Err: err}
}
