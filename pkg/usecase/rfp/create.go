package rfp

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// CreateOptions contains the intake fields for a new RFP
type CreateOptions struct {
	Title         string
	ClientName    string
	ClientContact string
	ReceivedDate  string
	DueDate       string
	SalesTeam     []string
	Industry      string
	RFPSize       string
	Tags          []string
}

// Create runs the sales agent against an empty record id, producing a
// new structured RFP in INITIATED and committing its first transition.
// 1. Build the sales intake payload from the options
// 2. Invoke the sales agent through the orchestrator
// 3. Return the committed record
func (u *UseCase) Create(
	ctx context.Context,
	opts CreateOptions,
) (*model.RFP, error) {
	payload := map[string]any{
		"title":       opts.Title,
		"client_name": opts.ClientName,
	}
	if opts.ClientContact != "" {
		payload["client_contact"] = opts.ClientContact
	}
	if opts.ReceivedDate != "" {
		payload["received_date"] = opts.ReceivedDate
	}
	if opts.DueDate != "" {
		payload["due_date"] = opts.DueDate
	}
	if len(opts.SalesTeam) > 0 {
		payload["sales_team"] = opts.SalesTeam
	}
	if opts.Industry != "" {
		payload["industry"] = opts.Industry
	}
	if opts.RFPSize != "" {
		payload["rfp_size"] = opts.RFPSize
	}
	if len(opts.Tags) > 0 {
		payload["tags"] = opts.Tags
	}

	result, err := u.orchestrator.RunAgent(ctx, "sales", "", payload)
	if err != nil {
		return nil, err
	}
	if result.RFP == nil {
		return nil, goerr.New("sales agent returned no record")
	}

	return result.RFP, nil
}
