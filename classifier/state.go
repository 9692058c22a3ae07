package classifier

// State is the lifecycle stage of a Driver.
type State int

const (
	// StateUninitialized is a new driver without an engine.
	StateUninitialized State = iota
	// StateEngineLoaded has the engine and execution context ready.
	StateEngineLoaded
	// StateProcessing is inside the per-image loop.
	StateProcessing
	// StateDone has classified every image.
	StateDone
	// StateFailed stopped on an error.
	StateFailed
	// StateClosed has released the engine.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEngineLoaded:
		return "engine-loaded"
	case StateProcessing:
		return "processing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
