package workflow_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
)

func TestDefaultMachineIsLinear(t *testing.T) {
	m := workflow.NewMachine()
	states := model.AllStatuses()

	for i, s := range states {
		next := m.NextStates(s)
		if i+1 < len(states) {
			gt.A(t, next).Length(1)
			gt.Equal(t, next[0], states[i+1])
		} else {
			gt.A(t, next).Length(0)
		}
	}
}

func TestInitiatedHasNoIncomingEdge(t *testing.T) {
	m := workflow.NewMachine()
	for _, s := range model.AllStatuses() {
		gt.False(t, m.CanTransition(s, model.StatusInitiated))
	}
}

func TestTerminalState(t *testing.T) {
	m := workflow.NewMachine()
	gt.True(t, m.IsTerminal(model.StatusSubmitted))
	gt.False(t, m.IsTerminal(model.StatusInitiated))
	gt.False(t, m.IsTerminal(model.StatusSubmissionReady))
}

func TestValidate(t *testing.T) {
	m := workflow.NewMachine()

	gt.NoError(t, m.Validate(model.StatusInitiated, model.StatusLinkedToRFP))

	// skipping a stage
	err := m.Validate(model.StatusInitiated, model.StatusSalesAssembly)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	// going backwards
	err = m.Validate(model.StatusBDMReview, model.StatusSalesAssembly)
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	// unknown target
	err = m.Validate(model.StatusInitiated, model.Status("NOPE"))
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	// out of terminal
	err = m.Validate(model.StatusSubmitted, model.StatusInitiated)
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))
}

func TestWithTransition(t *testing.T) {
	m := workflow.NewMachine(
		workflow.WithTransition(model.StatusLegalReview, model.StatusContentDraft),
	)

	gt.True(t, m.CanTransition(model.StatusLegalReview, model.StatusContentDraft))
	gt.True(t, m.CanTransition(model.StatusLegalReview, model.StatusQualityReview))
	gt.NoError(t, m.Validate(model.StatusLegalReview, model.StatusContentDraft))

	// the extra edge is per-instance
	gt.False(t, workflow.NewMachine().CanTransition(model.StatusLegalReview, model.StatusContentDraft))
}

func TestWithTransitionIgnoresTerminalSource(t *testing.T) {
	m := workflow.NewMachine(
		workflow.WithTransition(model.StatusSubmitted, model.StatusInitiated),
	)
	gt.True(t, m.IsTerminal(model.StatusSubmitted))
	gt.False(t, m.CanTransition(model.StatusSubmitted, model.StatusInitiated))
}

func TestEveryStateReachableFromInitiated(t *testing.T) {
	m := workflow.NewMachine()

	visited := map[model.Status]bool{model.StatusInitiated: true}
	queue := []model.Status{model.StatusInitiated}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range m.NextStates(s) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, s := range model.AllStatuses() {
		gt.True(t, visited[s])
	}
}
