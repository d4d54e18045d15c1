package resolver

// State tracks a resolution request through its pipeline phases. Failed is
// terminal and reachable only from the first three states: once every
// validated input is in hand, composition and finalization are total.
type State string

const (
	StateUnresolved       State = "unresolved"
	StateBandsFetched     State = "bands_fetched"
	StateModifiersApplied State = "modifiers_applied"
	StateComposited       State = "composited"
	StateFinalized        State = "finalized"
	StateFailed           State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// canFail reports whether a request in this state may still transition to
// Failed.
func (s State) canFail() bool {
	switch s {
	case StateUnresolved, StateBandsFetched, StateModifiersApplied:
		return true
	default:
		return false
	}
}
