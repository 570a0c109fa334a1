package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

// DefaultRoutingThreshold is the minimum similarity score for a task to
// be assigned to a knowledge base team.
const DefaultRoutingThreshold = 0.75

const routingTopK = 3

// SMERouter assigns unassigned tasks to SME teams. Each task's text is
// embedded and matched against the knowledge base; the top match above
// the threshold wins. Tasks without a match stay unassigned and are
// flagged in events — routing never guesses. SME_QA is proposed only
// once every task has been attempted.
type SMERouter struct {
	repo      repository.Repository
	embedder  adapter.Embedder
	threshold float64
}

// NewSMERouter creates the routing agent. A threshold of 0 selects
// DefaultRoutingThreshold.
func NewSMERouter(repo repository.Repository, embedder adapter.Embedder, threshold float64) *SMERouter {
	if threshold <= 0 {
		threshold = DefaultRoutingThreshold
	}
	return &SMERouter{repo: repo, embedder: embedder, threshold: threshold}
}

func (a *SMERouter) Name() string {
	return "sme_router"
}

func (a *SMERouter) Invoke(ctx context.Context, in *Input) (*Result, error) {
	if in.RFPID == "" {
		return nil, goerr.Wrap(ErrExecution, "sme router requires an RFP id")
	}
	if a.embedder == nil {
		return nil, goerr.Wrap(ErrExecution, "sme router requires an embedding backend")
	}

	tasks, err := a.repo.ListTasksByRFP(ctx, in.RFPID)
	if err != nil {
		return nil, goerr.Wrap(err, "sme router failed to list tasks", goerr.V("rfp_id", in.RFPID))
	}
	if len(tasks) == 0 {
		return nil, goerr.Wrap(ErrExecution, "no tasks to route", goerr.V("rfp_id", in.RFPID))
	}

	var unassigned []*model.Task
	for _, task := range tasks {
		if task.Unassigned() {
			unassigned = append(unassigned, task)
		}
	}

	if len(unassigned) == 0 {
		return &Result{
			Events:    []string{"all_tasks_already_assigned"},
			NextState: model.StatusSMEQA,
		}, nil
	}

	texts := make([]string, len(unassigned))
	for i, task := range unassigned {
		texts[i] = task.Text()
	}

	// One backend round trip for all tasks; order is preserved.
	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "sme router failed to embed tasks")
	}

	now := time.Now()
	result := &Result{NextState: model.StatusSMEQA}
	var teams []string
	routed := 0

	for i, task := range unassigned {
		task.Embedding = vectors[i]
		task.UpdatedAt = now
		result.Tasks = append(result.Tasks, task)

		matches, err := a.repo.SearchKnowledge(ctx, vectors[i], routingTopK)
		if err != nil {
			return nil, goerr.Wrap(err, "sme router failed to search knowledge base",
				goerr.V("task_id", task.ID))
		}

		if len(matches) == 0 || matches[0].Score < a.threshold {
			result.Events = append(result.Events, fmt.Sprintf("no_match: %s", task.Title))
			continue
		}

		top := matches[0]
		task.AssignedTeam = top.Entry.TeamKey
		task.Status = model.TaskStatusAssigned
		task.Routing = model.RoutingInfo{
			MatchedEntryID: top.Entry.ID,
			Score:          top.Score,
			RoutedAt:       now,
		}
		teams = append(teams, top.Entry.TeamKey)
		routed++
		result.Events = append(result.Events,
			fmt.Sprintf("routed %q to %s (score %.2f)", task.Title, top.Entry.TeamKey, top.Score))
	}

	result.Events = append(result.Events,
		fmt.Sprintf("routing attempted for %d tasks, %d assigned", len(unassigned), routed))
	if len(teams) > 0 {
		result.Patch = &model.RFPPatch{
			Participants: &model.ParticipantsPatch{SMEs: teams},
		}
	}
	return result, nil
}
