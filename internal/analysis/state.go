package analysis

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is a step of one submission's lifecycle.
type State string

const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StatePlayingCannedSteps State = "playing_canned_steps"
	StateAwaitingResponse   State = "awaiting_response"
	StateSuccess            State = "success"
	StateFailure            State = "failure"
)

var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State][]State{
	StateIdle:               {StateValidating},
	StateValidating:         {StatePlayingCannedSteps, StateFailure},
	StatePlayingCannedSteps: {StateAwaitingResponse, StateFailure},
	StateAwaitingResponse:   {StateSuccess, StateFailure},
	StateSuccess:            {StateIdle},
	StateFailure:            {StateIdle},
}

// Transition is delivered to observers on every state change.
type Transition struct {
	Feature string
	From    State
	To      State
	Err     error
	At      time.Time
}

// Observer is called synchronously, in order, for each transition.
type Observer func(Transition)

// Machine tracks the submission state of one feature session.
type Machine struct {
	feature   string
	now       func() time.Time
	mu        sync.Mutex
	state     State
	observers []Observer
}

func NewMachine(feature string, observers ...Observer) *Machine {
	return &Machine{feature: feature, now: time.Now, state: StateIdle, observers: observers}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin moves Idle to Validating. It fails when a submission is already running.
func (m *Machine) Begin() error {
	return m.To(StateValidating, nil)
}

// To moves to next, notifying observers. err is attached for failures.
func (m *Machine) To(next State, err error) error {
	m.mu.Lock()
	from := m.state
	allowed := false
	for _, s := range transitions[from] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}
	m.state = next
	observers := m.observers
	m.mu.Unlock()

	t := Transition{Feature: m.feature, From: from, To: next, Err: err, At: m.now()}
	for _, o := range observers {
		o(t)
	}
	return nil
}

// Finish records the outcome and returns to Idle.
func (m *Machine) Finish(err error) {
	outcome := StateSuccess
	if err != nil {
		outcome = StateFailure
	}
	_ = m.To(outcome, err)
	_ = m.To(StateIdle, nil)
}
