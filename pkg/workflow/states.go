package workflow

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

var (
	ErrInvalidTransition = goerr.New("invalid transition requested")
)

// Machine holds the closed set of legal transitions between workflow
// states. The default graph is the linear happy path
// INITIATED → ... → SUBMITTED; branches such as a legal-review rework
// edge are added per instance via WithTransition, never hardcoded.
type Machine struct {
	edges map[model.Status][]model.Status
}

// Option configures a Machine
type Option func(*Machine)

// WithTransition adds an extra legal edge to the graph. Edges out of
// the terminal state are ignored.
func WithTransition(from, to model.Status) Option {
	return func(m *Machine) {
		if from == model.StatusSubmitted {
			return
		}
		for _, next := range m.edges[from] {
			if next == to {
				return
			}
		}
		m.edges[from] = append(m.edges[from], to)
	}
}

// NewMachine builds the transition graph. Without options each
// non-terminal state has exactly one successor.
func NewMachine(opts ...Option) *Machine {
	states := model.AllStatuses()
	edges := make(map[model.Status][]model.Status, len(states))
	for i, s := range states {
		if i+1 < len(states) {
			edges[s] = []model.Status{states[i+1]}
		} else {
			edges[s] = nil
		}
	}

	m := &Machine{edges: edges}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CanTransition reports whether to is directly reachable from from.
func (m *Machine) CanTransition(from, to model.Status) bool {
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the states directly reachable from the given one.
func (m *Machine) NextStates(from model.Status) []model.Status {
	return append([]model.Status(nil), m.edges[from]...)
}

// IsTerminal reports whether the state has no outgoing transitions.
func (m *Machine) IsTerminal(s model.Status) bool {
	return len(m.edges[s]) == 0
}

// Validate checks a proposed transition and returns ErrInvalidTransition
// when the target is not in the source's reachable set.
func (m *Machine) Validate(from, to model.Status) error {
	if err := to.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidTransition, "unknown target state",
			goerr.V("from", from), goerr.V("to", to))
	}
	if !m.CanTransition(from, to) {
		return goerr.Wrap(ErrInvalidTransition, "target not reachable",
			goerr.V("from", from), goerr.V("to", to))
	}
	return nil
}
