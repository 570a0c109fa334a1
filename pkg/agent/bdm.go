package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

// BDM covers two stages of the pipeline. At SALES_ASSEMBLY it takes
// ownership of the record (review start); at BDM_REVIEW it breaks the
// RFP into an ordered sequence of tasks from either structured
// "sections" or free-text "content" in the payload.
type BDM struct {
	repo repository.Repository
}

// NewBDM creates the BDM review/breakdown agent
func NewBDM(repo repository.Repository) *BDM {
	return &BDM{repo: repo}
}

func (a *BDM) Name() string {
	return "bdm"
}

func (a *BDM) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return nil, goerr.Wrap(ErrExecution, "bdm agent requires an RFP id")
	}

	rfp, err := a.repo.GetRFP(ctx, in.RFPID)
	if err != nil {
		return nil, goerr.Wrap(err, "bdm agent failed to load RFP", goerr.V("rfp_id", in.RFPID))
	}

	if rfp.Status == model.StatusSalesAssembly {
		return a.review(rfp, in.Payload), nil
	}
	return a.breakdown(rfp, in.Payload)
}

// review assigns the BDM owner and moves the record into review.
func (a *BDM) review(rfp *model.RFP, payload map[string]any) *Result {
	owner := payloadString(payload, "bdm")
	if owner == "" {
		owner = rfp.Participants.BDM
	}

	result := &Result{
		Events:    []string{"bdm_review_started"},
		NextState: model.StatusBDMReview,
	}
	if owner != "" && owner != rfp.Participants.BDM {
		result.Patch = &model.RFPPatch{
			Participants: &model.ParticipantsPatch{BDM: model.Ptr(owner)},
		}
		result.Events = append(result.Events, "bdm_owner_assigned")
	}
	return result
}

type section struct {
	Title       string
	Description string
	Team        string
	Type        model.TaskType
}

// breakdown derives tasks from the payload and attaches them to the
// record.
func (a *BDM) breakdown(rfp *model.RFP, payload map[string]any) (*Result, error) {
	sections, err := parseSections(payload)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, goerr.Wrap(ErrExecution, "bdm payload requires 'sections' or 'content'")
	}

	now := time.Now()
	result := &Result{
		Patch:     &model.RFPPatch{},
		NextState: model.StatusRFPBreakdown,
	}

	for _, sec := range sections {
		task := &model.Task{
			ID:           model.NewTaskID(),
			RFPID:        rfp.ID,
			Type:         sec.Type,
			Status:       model.TaskStatusPending,
			Title:        sec.Title,
			Description:  sec.Description,
			AssignedTeam: sec.Team,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		result.Tasks = append(result.Tasks, task)
		result.Patch.Tasks = append(result.Patch.Tasks, model.TaskRef{
			TaskID: task.ID,
			Source: a.Name(),
		})
	}

	result.Events = append(result.Events, fmt.Sprintf("created %d tasks", len(result.Tasks)))
	return result, nil
}

func parseSections(payload map[string]any) ([]section, error) {
	if raw, ok := payload["sections"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, goerr.Wrap(ErrExecution, "bdm payload 'sections' is not a list")
		}

		var sections []section
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, goerr.Wrap(ErrExecution, "bdm payload section is not an object")
			}
			sec := section{
				Title:       payloadString(m, "title"),
				Description: payloadString(m, "description"),
				Team:        payloadString(m, "team"),
				Type:        taskTypeOf(payloadString(m, "type")),
			}
			if sec.Title == "" {
				sec.Title = "Untitled section"
			}
			sections = append(sections, sec)
		}
		return sections, nil
	}

	// Free-text fallback: one task per paragraph
	content := payloadString(payload, "content")
	var sections []section
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		title := para
		if idx := strings.IndexByte(para, '\n'); idx > 0 {
			title = para[:idx]
		}
		if len(title) > 80 {
			title = title[:80]
		}
		sections = append(sections, section{
			Title:       title,
			Description: para,
			Type:        model.TaskTypeSMEQA,
		})
	}
	return sections, nil
}

func taskTypeOf(s string) model.TaskType {
	switch model.TaskType(s) {
	case model.TaskTypeSMEQA, model.TaskTypeContentDraft, model.TaskTypeLegalReview, model.TaskTypeQualityCheck, model.TaskTypeOther:
		return model.TaskType(s)
	default:
		return model.TaskTypeSMEQA
	}
}
