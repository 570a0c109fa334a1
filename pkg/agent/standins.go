package agent

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

// Writer, Legal and Quality are stand-in stages: they satisfy the agent
// contract with pass-through logic and can be swapped for real
// implementations without touching the orchestration core.

// Writer collects answered SME tasks into a draft at SME_QA and
// finishes the draft at CONTENT_DRAFT.
type Writer struct {
	repo repository.Repository
}

func NewWriter(repo repository.Repository) *Writer {
	return &Writer{repo: repo}
}

func (a *Writer) Name() string {
	return "writer"
}

func (a *Writer) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return nil, goerr.Wrap(ErrExecution, "writer agent requires an RFP id")
	}

	rfp, err := a.repo.GetRFP(ctx, in.RFPID)
	if err != nil {
		return nil, goerr.Wrap(err, "writer agent failed to load RFP", goerr.V("rfp_id", in.RFPID))
	}

	result := &Result{}
	if url := payloadString(in.Payload, "draft_url"); url != "" {
		result.Patch = &model.RFPPatch{
			Documents: &model.DocumentsPatch{DraftDocumentURL: model.Ptr(url)},
		}
	}

	if rfp.Status == model.StatusSMEQA {
		// Mark assigned SME tasks as answered; real content work is
		// outside this stand-in.
		tasks, err := a.repo.ListTasksByRFP(ctx, in.RFPID)
		if err != nil {
			return nil, goerr.Wrap(err, "writer agent failed to list tasks")
		}
		now := time.Now()
		for _, task := range tasks {
			if task.Status == model.TaskStatusAssigned {
				task.Status = model.TaskStatusAnswered
				task.UpdatedAt = now
				result.Tasks = append(result.Tasks, task)
			}
		}
		result.Events = append(result.Events, "draft_started")
		result.NextState = model.StatusContentDraft
		return result, nil
	}

	result.Events = append(result.Events, "draft_completed")
	result.NextState = model.StatusLegalReview
	return result, nil
}

// Legal marks the record reviewed. A payload of approve=false routes
// the record back to the configured rework state instead.
type Legal struct {
	reworkTo model.Status
}

func NewLegal(reworkTo model.Status) *Legal {
	if reworkTo == "" {
		reworkTo = model.StatusContentDraft
	}
	return &Legal{reworkTo: reworkTo}
}

func (a *Legal) Name() string {
	return "legal"
}

func (a *Legal) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return nil, goerr.Wrap(ErrExecution, "legal agent requires an RFP id")
	}

	if !payloadBool(in.Payload, "approve", true) {
		return &Result{
			Events:    []string{"legal_rejected"},
			NextState: a.reworkTo,
		}, nil
	}

	return &Result{
		Events:    []string{"legal_approved"},
		NextState: model.StatusQualityReview,
	}, nil
}

// Quality signs the final document off.
type Quality struct{}

func NewQuality() *Quality {
	return &Quality{}
}

func (a *Quality) Name() string {
	return "quality"
}

func (a *Quality) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return nil, goerr.Wrap(ErrExecution, "quality agent requires an RFP id")
	}

	result := &Result{
		Events:    []string{"quality_approved"},
		NextState: model.StatusFinalRFP,
	}
	if url := payloadString(in.Payload, "final_url"); url != "" {
		result.Patch = &model.RFPPatch{
			Documents: &model.DocumentsPatch{FinalDocumentURL: model.Ptr(url)},
		}
	}
	return result, nil
}
