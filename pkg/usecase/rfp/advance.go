package rfp

import (
	"context"

	"github.com/rfpstudio/rfpflow/pkg/model"
)

// AdvanceOptions contains options for a manual transition
type AdvanceOptions struct {
	ID    model.RFPID
	To    model.Status
	Actor string
	Note  string
}

// Advance commits a manual transition for stages without a registered
// agent, such as VP approval or final submission. The transition is
// validated like any agent proposal.
func (u *UseCase) Advance(
	ctx context.Context,
	opts AdvanceOptions,
) (*model.RFP, error) {
	actor := opts.Actor
	if actor == "" {
		actor = "manual"
	}
	return u.orchestrator.Advance(ctx, opts.ID, opts.To, actor, opts.Note)
}
