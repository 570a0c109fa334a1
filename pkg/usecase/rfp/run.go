package rfp

import (
	"context"

	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
)

// Run executes the agent pipeline for a record until it halts at a
// terminal state, an unattended stage, or a missing proposal.
func (u *UseCase) Run(
	ctx context.Context,
	id model.RFPID,
	payload map[string]any,
) (*workflow.RunResult, error) {
	return u.orchestrator.Run(ctx, id, payload)
}

// RunAgent executes a single named agent against a record, regardless
// of which state the agent is registered for.
func (u *UseCase) RunAgent(
	ctx context.Context,
	name string,
	id model.RFPID,
	payload map[string]any,
) (*workflow.RunResult, error) {
	return u.orchestrator.RunAgent(ctx, name, id, payload)
}
