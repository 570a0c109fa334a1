package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/agent"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

func seedRouterFixtures(t *testing.T, repo repository.Repository, taskTitles ...string) *model.RFP {
	t.Helper()
	ctx := context.Background()

	rfp := storeRFP(t, repo, model.StatusRFPBreakdown)

	now := time.Now()
	for _, title := range taskTitles {
		task := &model.Task{
			ID:        model.NewTaskID(),
			RFPID:     rfp.ID,
			Type:      model.TaskTypeSMEQA,
			Status:    model.TaskStatusPending,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		gt.NoError(t, repo.PutTask(ctx, task))
	}

	entries := []struct {
		team   string
		vector []float32
	}{
		{"security", []float32{1, 0, 0}},
		{"pricing", []float32{0, 1, 0}},
	}
	for _, e := range entries {
		gt.NoError(t, repo.PutKnowledge(ctx, &model.KnowledgeEntry{
			ID:        model.NewKnowledgeID(),
			Content:   e.team + " reference material",
			TeamKey:   e.team,
			Embedding: e.vector,
			CreatedAt: now,
		}))
	}
	return rfp
}

func TestRouterAssignsAboveThreshold(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	router := agent.NewSMERouter(repo, &stubEmbedder{}, 0.75)

	// security: cosine 1.0, compliance: 0.9, legacy: 0.5
	rfp := seedRouterFixtures(t, repo,
		"Security certifications",
		"Compliance reporting",
		"Legacy system migration",
	)

	result, err := router.Invoke(ctx, &agent.Input{RFPID: rfp.ID})
	gt.NoError(t, err)
	gt.Equal(t, result.NextState, model.StatusSMEQA)
	gt.A(t, result.Tasks).Length(3)

	byTitle := map[string]*model.Task{}
	for _, task := range result.Tasks {
		byTitle[task.Title] = task
	}

	gt.Equal(t, byTitle["Security certifications"].AssignedTeam, "security")
	gt.Equal(t, byTitle["Security certifications"].Status, model.TaskStatusAssigned)
	gt.Number(t, byTitle["Security certifications"].Routing.Score).GreaterOrEqual(0.99)

	gt.Equal(t, byTitle["Compliance reporting"].AssignedTeam, "security")
	gt.Number(t, byTitle["Compliance reporting"].Routing.Score).GreaterOrEqual(0.75)

	// below threshold: stays unassigned, flagged in events
	gt.Equal(t, byTitle["Legacy system migration"].AssignedTeam, "")
	gt.Equal(t, byTitle["Legacy system migration"].Status, model.TaskStatusPending)

	var noMatch bool
	for _, ev := range result.Events {
		if ev == "no_match: Legacy system migration" {
			noMatch = true
		}
	}
	gt.True(t, noMatch)

	// only matched teams land in participants
	gt.V(t, result.Patch).NotNil()
	gt.A(t, result.Patch.Participants.SMEs).Length(2)
}

func TestRouterAllBelowThreshold(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	router := agent.NewSMERouter(repo, &stubEmbedder{}, 0.75)

	rfp := seedRouterFixtures(t, repo, "Legacy system migration")

	result, err := router.Invoke(ctx, &agent.Input{RFPID: rfp.ID})
	gt.NoError(t, err)
	gt.Equal(t, result.NextState, model.StatusSMEQA)
	gt.Nil(t, result.Patch)

	tasks, err := repo.ListTasksByRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, tasks[0].Status, model.TaskStatusPending)
}

func TestRouterNoTasks(t *testing.T) {
	repo := repository.NewMemory()
	router := agent.NewSMERouter(repo, &stubEmbedder{}, 0)
	rfp := storeRFP(t, repo, model.StatusRFPBreakdown)

	_, err := router.Invoke(context.Background(), &agent.Input{RFPID: rfp.ID})
	gt.True(t, errors.Is(err, agent.ErrExecution))
}

func TestRouterAllAlreadyAssigned(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	router := agent.NewSMERouter(repo, &stubEmbedder{}, 0.75)
	rfp := storeRFP(t, repo, model.StatusRFPBreakdown)

	task := &model.Task{
		ID:           model.NewTaskID(),
		RFPID:        rfp.ID,
		Status:       model.TaskStatusAssigned,
		AssignedTeam: "security",
		Title:        "Security certifications",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	gt.NoError(t, repo.PutTask(ctx, task))

	result, err := router.Invoke(ctx, &agent.Input{RFPID: rfp.ID})
	gt.NoError(t, err)
	gt.Equal(t, result.NextState, model.StatusSMEQA)
	gt.A(t, result.Tasks).Length(0)
	gt.Equal(t, result.Events[0], "all_tasks_already_assigned")
}

func TestRouterRequiresEmbedder(t *testing.T) {
	repo := repository.NewMemory()
	router := agent.NewSMERouter(repo, nil, 0.75)

	_, err := router.Invoke(context.Background(), &agent.Input{RFPID: "r-1"})
	gt.True(t, errors.Is(err, agent.ErrExecution))
}
