package agent

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

// Sales handles the start of the lifecycle: it creates a structured RFP
// record from raw intake data, or enriches an existing record with
// client and timeline details. Enrichment is idempotent; re-running
// with the same payload changes nothing.
type Sales struct {
	repo     repository.Repository
	embedder adapter.Embedder
}

// NewSales creates the sales intake agent. embedder may be nil; record
// embeddings are then skipped and flagged in events.
func NewSales(repo repository.Repository, embedder adapter.Embedder) *Sales {
	return &Sales{repo: repo, embedder: embedder}
}

func (a *Sales) Name() string {
	return "sales"
}

func (a *Sales) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return a.create(ctx, in.Payload)
	}
	return a.enrich(ctx, in.RFPID, in.Payload)
}

func (a *Sales) create(ctx context.Context, payload map[string]any) (*Result, error) {
	title := payloadString(payload, "title")
	clientName := payloadString(payload, "client_name")
	if title == "" {
		return nil, goerr.Wrap(ErrExecution, "missing 'title' in sales payload")
	}
	if clientName == "" {
		return nil, goerr.Wrap(ErrExecution, "missing 'client_name' in sales payload")
	}

	now := time.Now()
	rfp := &model.RFP{
		ID:     model.NewRFPID(),
		Title:  title,
		Status: model.StatusInitiated,
		Client: model.ClientInfo{
			Name:    clientName,
			Contact: payloadString(payload, "client_contact"),
		},
		Timeline: model.Timeline{
			ReceivedDate: payloadString(payload, "received_date"),
			DueDate:      payloadString(payload, "due_date"),
		},
		Participants: model.Participants{
			SalesTeam: payloadStrings(payload, "sales_team"),
		},
		Metadata: model.Metadata{
			Industry: payloadString(payload, "industry"),
			RFPSize:  payloadString(payload, "rfp_size"),
			Tags:     payloadStrings(payload, "tags"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	events := []string{"rfp_created"}

	if a.embedder != nil {
		vector, err := a.embedder.Embed(ctx, recordText(rfp))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed new RFP")
		}
		rfp.Embedding = vector
	} else {
		events = append(events, "embedding_skipped")
	}

	return &Result{
		Record:    rfp,
		Events:    events,
		NextState: model.StatusLinkedToRFP,
	}, nil
}

func (a *Sales) enrich(ctx context.Context, id model.RFPID, payload map[string]any) (*Result, error) {
	rfp, err := a.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "sales agent failed to load RFP", goerr.V("rfp_id", id))
	}

	patch := &model.RFPPatch{}
	titleChanged := false

	if title := payloadString(payload, "title"); title != "" && title != rfp.Title {
		patch.Title = model.Ptr(title)
		titleChanged = true
	}
	if name, contact := payloadString(payload, "client_name"), payloadString(payload, "client_contact"); name != "" || contact != "" {
		cp := &model.ClientPatch{}
		if name != "" {
			cp.Name = model.Ptr(name)
		}
		if contact != "" {
			cp.Contact = model.Ptr(contact)
		}
		patch.Client = cp
	}
	if received, due := payloadString(payload, "received_date"), payloadString(payload, "due_date"); received != "" || due != "" {
		tp := &model.TimelinePatch{}
		if received != "" {
			tp.ReceivedDate = model.Ptr(received)
		}
		if due != "" {
			tp.DueDate = model.Ptr(due)
		}
		patch.Timeline = tp
	}
	if team := payloadStrings(payload, "sales_team"); len(team) > 0 {
		patch.Participants = &model.ParticipantsPatch{SalesTeam: team}
	}
	if industry, size, tags := payloadString(payload, "industry"), payloadString(payload, "rfp_size"), payloadStrings(payload, "tags"); industry != "" || size != "" || len(tags) > 0 {
		mp := &model.MetadataPatch{Tags: tags}
		if industry != "" {
			mp.Industry = model.Ptr(industry)
		}
		if size != "" {
			mp.RFPSize = model.Ptr(size)
		}
		patch.Metadata = mp
	}

	events := []string{"rfp_enriched_by_sales"}
	if patch.IsEmpty() {
		events = []string{"no_sales_updates"}
	}

	// Title changes alter the record's semantic content
	if titleChanged && a.embedder != nil {
		preview := *rfp
		patch.Apply(&preview)
		vector, err := a.embedder.Embed(ctx, recordText(&preview))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to re-embed RFP")
		}
		patch.Embedding = vector
		events = append(events, "embedding_refreshed")
	}

	result := &Result{
		Patch:  patch,
		Events: events,
	}
	if rfp.Status == model.StatusLinkedToRFP {
		result.NextState = model.StatusSalesAssembly
	}
	return result, nil
}

// recordText builds the text embedded for RFP similarity search.
func recordText(rfp *model.RFP) string {
	text := rfp.Title + "\n" + rfp.Client.Name
	if rfp.Metadata.Industry != "" {
		text += "\n" + rfp.Metadata.Industry
	}
	for _, tag := range rfp.Metadata.Tags {
		text += "\n" + tag
	}
	return text
}
