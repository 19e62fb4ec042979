package confirmation

import "fmt"

// State of one confirmation resolution run.
type State string

const (
	// StateIdle is the initial state before a reference arrives.
	StateIdle State = "idle"
	// StateAwaitingReference means the run exists but the payment reference
	// has not been validated yet.
	StateAwaitingReference State = "awaiting_reference"
	// StateResolving means lookups are in flight.
	StateResolving State = "resolving"
	// StateResolved is terminal: a verdict was reached.
	StateResolved State = "resolved"
	// StateUnresolved is terminal: the retry budget ran out without a verdict.
	StateUnresolved State = "unresolved"
)

func (s State) Terminal() bool {
	return s == StateResolved || s == StateUnresolved
}

var allowedTransitions = map[State][]State{
	StateIdle:              {StateAwaitingReference},
	StateAwaitingReference: {StateResolving},
	StateResolving:         {StateResolved, StateUnresolved},
}

// machine tracks the run's state and rejects transitions outside the
// idle -> awaiting_reference -> resolving -> resolved|unresolved path.
// Once terminal, every further transition is rejected; a cancelled run
// simply stays where it was.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateIdle}
}

func (m *machine) current() State { return m.state }

func (m *machine) transition(to State) error {
	for _, next := range allowedTransitions[m.state] {
		if next == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal confirmation transition %s -> %s", m.state, to)
}
