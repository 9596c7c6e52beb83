package component

// State is the lifecycle state of one component instance.
type State uint8

const (
	StateCreated State = iota
	StatePreInit
	StateInit
	StateObjectCreated
	StateObjectLoaded
	StateActive
	StateSuspended
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePreInit:
		return "pre_init"
	case StateInit:
		return "init"
	case StateObjectCreated:
		return "object_created"
	case StateObjectLoaded:
		return "object_loaded"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// forward lists the lifecycle edges. Shutdown is reachable from every state but
// itself and is handled separately; Suspended is an overlay, not a stage.
var forward = map[State][]State{
	StateCreated:       {StatePreInit},
	StatePreInit:       {StateInit},
	StateInit:          {StateObjectCreated, StateActive},
	StateObjectCreated: {StateObjectLoaded},
	StateObjectLoaded:  {StateActive},
}

func canAdvance(from, to State) bool {
	for _, s := range forward[from] {
		if s == to {
			return true
		}
	}
	return false
}
