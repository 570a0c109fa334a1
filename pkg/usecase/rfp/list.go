package rfp

import (
	"context"

	"github.com/rfpstudio/rfpflow/pkg/model"
)

// ListOptions contains options for listing RFPs
type ListOptions struct {
	Status model.Status // filter; empty matches all
	Offset int
	Limit  int
}

// List retrieves RFPs ordered by creation time descending
func (u *UseCase) List(
	ctx context.Context,
	opts ListOptions,
) ([]*model.RFP, error) {
	rfps, err := u.repo.ListRFPs(ctx, opts.Offset, opts.Limit)
	if err != nil {
		return nil, err
	}

	if opts.Status == "" {
		return rfps, nil
	}

	filtered := make([]*model.RFP, 0, len(rfps))
	for _, r := range rfps {
		if r.Status == opts.Status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
