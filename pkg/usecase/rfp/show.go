package rfp

import (
	"context"

	"github.com/rfpstudio/rfpflow/pkg/model"
)

// ShowResult is a record together with its task documents
type ShowResult struct {
	RFP   *model.RFP
	Tasks []*model.Task
}

// Show retrieves one RFP with its full history and tasks
func (u *UseCase) Show(
	ctx context.Context,
	id model.RFPID,
) (*ShowResult, error) {
	rfp, err := u.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := u.repo.ListTasksByRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ShowResult{RFP: rfp, Tasks: tasks}, nil
}
