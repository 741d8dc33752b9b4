package turntaking

// State is the engine's position in the decision cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingCandidates
	StateArbitrating
	StateDispatched
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCandidates:
		return "awaiting_candidates"
	case StateArbitrating:
		return "arbitrating"
	case StateDispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}

// TurnContext is an agent's relation to the conversational floor, governing
// which proactivity threshold applies.
type TurnContext int

const (
	// TurnOpen: nobody holds the floor; imThreshold applies.
	TurnOpen TurnContext = iota
	// TurnAllocated: this agent was addressed or holds the floor; it speaks
	// with its best evaluated thought regardless of threshold.
	TurnAllocated
	// TurnOthers: another participant holds the floor; interruptThreshold
	// applies.
	TurnOthers
)

func (c TurnContext) String() string {
	switch c {
	case TurnOpen:
		return "open"
	case TurnAllocated:
		return "allocated"
	case TurnOthers:
		return "others"
	default:
		return "unknown"
	}
}
