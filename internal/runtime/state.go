package runtime

// State tracks a consumer instance through its lifecycle:
// Stopped → Starting → Running → Draining → Stopped. Degraded is not a
// distinct state but a flag raised while Running when the broker or the
// downstream store is unavailable.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}
