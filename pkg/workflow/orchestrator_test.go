package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/agent"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
)

// stubEmbedder maps keywords to fixed unit vectors so similarity scores
// are deterministic.
type stubEmbedder struct{}

func vectorFor(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "security"):
		return []float32{1, 0, 0}
	case strings.Contains(t, "pricing"):
		return []float32{0, 1, 0}
	case strings.Contains(t, "compliance"):
		// cosine 0.9 against the security axis
		return []float32{0.9, 0, 0.436}
	default:
		return []float32{0, 0, 1}
	}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return vectorFor(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorFor(text)
	}
	return out, nil
}

func seedKnowledge(t *testing.T, repo repository.Repository) {
	t.Helper()
	ctx := context.Background()

	entries := []*model.KnowledgeEntry{
		{
			ID:        model.NewKnowledgeID(),
			Content:   "security and compliance certifications",
			TeamKey:   "security",
			Embedding: []float32{1, 0, 0},
			CreatedAt: time.Now(),
		},
		{
			ID:        model.NewKnowledgeID(),
			Content:   "pricing models and licensing",
			TeamKey:   "pricing",
			Embedding: []float32{0, 1, 0},
			CreatedAt: time.Now(),
		},
	}
	for _, e := range entries {
		gt.NoError(t, repo.PutKnowledge(ctx, e))
	}
}

func newTestOrchestrator(repo repository.Repository, opts ...workflow.OrchestratorOption) (*workflow.Orchestrator, *agent.Registry) {
	registry := agent.DefaultRegistry(repo, &stubEmbedder{}, 0.75)
	machine := workflow.NewMachine(
		workflow.WithTransition(model.StatusLegalReview, model.StatusContentDraft),
	)
	return workflow.NewOrchestrator(repo, registry, machine, opts...), registry
}

func createTestRFP(t *testing.T, orch *workflow.Orchestrator) *model.RFP {
	t.Helper()

	result, err := orch.RunAgent(context.Background(), "sales", "", map[string]any{
		"title":       "Cloud security platform RFP",
		"client_name": "Globex",
		"due_date":    "2026-10-15",
	})
	gt.NoError(t, err)
	gt.V(t, result.RFP).NotNil()
	return result.RFP
}

func TestCreateCommitsFirstTransition(t *testing.T) {
	repo := repository.NewMemory()
	orch, _ := newTestOrchestrator(repo)

	rfp := createTestRFP(t, orch)

	gt.NotEqual(t, rfp.ID, model.RFPID(""))
	gt.Equal(t, rfp.Status, model.StatusLinkedToRFP)
	gt.A(t, rfp.History).Length(1)
	gt.Equal(t, rfp.History[0].Actor, "sales")
	gt.Equal(t, rfp.History[0].From, model.StatusInitiated)
	gt.Equal(t, rfp.History[0].To, model.StatusLinkedToRFP)
	gt.False(t, rfp.History[0].Rejected)

	// the record is persisted, not just returned
	stored, err := repo.GetRFP(context.Background(), rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, stored.Status, model.StatusLinkedToRFP)
}

func TestRunPipelineToSMEQA(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	seedKnowledge(t, repo)
	orch, _ := newTestOrchestrator(repo)

	rfp := createTestRFP(t, orch)

	result, err := orch.Run(ctx, rfp.ID, map[string]any{
		"bdm": "dana",
		"sections": []any{
			map[string]any{"title": "Security certifications", "description": "SOC2 and ISO coverage"},
			map[string]any{"title": "Pricing breakdown", "description": "licensing and support pricing"},
		},
	})
	gt.NoError(t, err)

	// sales enrich, bdm review, bdm breakdown, sme routing
	gt.A(t, result.Steps).Length(4)
	gt.Equal(t, result.RFP.Status, model.StatusSMEQA)
	gt.S(t, result.Halt).Contains("awaiting external action")

	// one history entry per committed step, in order, status-linked
	gt.A(t, result.RFP.History).Length(5)
	for i, ev := range result.RFP.History {
		gt.False(t, ev.Rejected)
		if i > 0 {
			gt.Equal(t, ev.From, result.RFP.History[i-1].To)
		}
	}

	// both tasks routed above threshold
	tasks, err := repo.ListTasksByRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.A(t, tasks).Length(2)
	for _, task := range tasks {
		gt.Equal(t, task.Status, model.TaskStatusAssigned)
		gt.Number(t, task.Routing.Score).GreaterOrEqual(0.75)
	}

	// task refs and SME teams landed on the record
	gt.A(t, result.RFP.Tasks).Length(2)
	gt.A(t, result.RFP.Participants.SMEs).Length(2)
}

func TestRunToSubmission(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	seedKnowledge(t, repo)
	orch, registry := newTestOrchestrator(repo)
	registry.RegisterStandIns(repo, model.StatusContentDraft)

	rfp := createTestRFP(t, orch)

	result, err := orch.Run(ctx, rfp.ID, map[string]any{
		"bdm": "dana",
		"sections": []any{
			map[string]any{"title": "Security certifications", "description": "SOC2 and ISO coverage"},
		},
	})
	gt.NoError(t, err)
	gt.Equal(t, result.RFP.Status, model.StatusFinalRFP)

	tasks, err := repo.ListTasksByRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, tasks[0].Status, model.TaskStatusAnswered)

	// VP approval and submission are manual stages
	for _, to := range []model.Status{
		model.StatusApprovedByVP,
		model.StatusSubmissionReady,
		model.StatusSubmitted,
	} {
		_, err := orch.Advance(ctx, rfp.ID, to, "vp_sales", "")
		gt.NoError(t, err)
	}

	final, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, final.Status, model.StatusSubmitted)

	// terminal: nothing moves anymore
	_, err = orch.Advance(ctx, rfp.ID, model.StatusInitiated, "vp_sales", "")
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	again, err := orch.Run(ctx, rfp.ID, nil)
	gt.NoError(t, err)
	gt.A(t, again.Steps).Length(0)
	gt.Equal(t, again.Halt, "terminal state reached")
}

func TestLegalRejectionRoutesBack(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	seedKnowledge(t, repo)
	orch, registry := newTestOrchestrator(repo)
	registry.RegisterStandIns(repo, model.StatusContentDraft)

	rfp := createTestRFP(t, orch)

	// drive the record to LEGAL_REVIEW step by step
	_, err := orch.Run(ctx, rfp.ID, map[string]any{
		"bdm": "dana",
		"sections": []any{
			map[string]any{"title": "Security certifications", "description": "SOC2"},
		},
		"approve": false,
	})
	// approve=false makes legal bounce the record back; the pipeline
	// keeps cycling draft -> legal until the step limit trips
	gt.Error(t, err)

	stored, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)

	var reworkEvents int
	for _, ev := range stored.History {
		if ev.Actor == "legal" && ev.To == model.StatusContentDraft {
			reworkEvents++
		}
	}
	gt.Number(t, reworkEvents).Greater(0)
}

func TestInvalidTransitionIsLoggedNotCommitted(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	orch, _ := newTestOrchestrator(repo)

	rfp := createTestRFP(t, orch)

	_, err := orch.Advance(ctx, rfp.ID, model.StatusSubmitted, "manual", "skipping ahead")
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	stored, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, stored.Status, model.StatusLinkedToRFP)

	last := stored.History[len(stored.History)-1]
	gt.True(t, last.Rejected)
	gt.Equal(t, last.From, model.StatusLinkedToRFP)
	gt.Equal(t, last.To, model.StatusSubmitted)
}

// failingAgent always errors to exercise the no-partial-commit rule.
type failingAgent struct{}

func (a *failingAgent) Name() string { return "broken" }

func (a *failingAgent) Invoke(ctx context.Context, in *agent.Input) (*agent.Result, error) {
	return nil, goerr.Wrap(agent.ErrExecution, "synthetic failure")
}

func TestAgentFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	orch, registry := newTestOrchestrator(repo)

	rfp := createTestRFP(t, orch)
	before, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)

	registry.Register(model.StatusLinkedToRFP, &failingAgent{})

	_, err = orch.Run(ctx, rfp.ID, nil)
	gt.True(t, errors.Is(err, agent.ErrExecution))

	after, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, after.Status, before.Status)
	gt.Equal(t, len(after.History), len(before.History))
}

func TestNoProposalCommitsAndHalts(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	orch, _ := newTestOrchestrator(repo)

	rfp := createTestRFP(t, orch)

	// move to SALES_ASSEMBLY, where a sales re-run proposes nothing
	_, err := orch.RunAgent(ctx, "sales", rfp.ID, nil)
	gt.NoError(t, err)

	result, err := orch.RunAgent(ctx, "sales", rfp.ID, nil)
	gt.NoError(t, err)
	gt.Equal(t, result.RFP.Status, model.StatusSalesAssembly)

	last := result.RFP.History[len(result.RFP.History)-1]
	gt.Equal(t, last.From, model.StatusSalesAssembly)
	gt.Equal(t, last.To, model.StatusSalesAssembly)
	gt.False(t, last.Rejected)
}

func TestGuardVetoesAgentTransition(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	guard, err := workflow.NewGuardFromModules(ctx, map[string]string{
		"submit.rego": denySubmissionPolicy,
	})
	gt.NoError(t, err)

	orch, _ := newTestOrchestrator(repo, workflow.WithGuard(guard))
	rfp := createTestRFP(t, orch)

	// drive to SUBMISSION_READY manually
	_, err = orch.RunAgent(ctx, "sales", rfp.ID, nil)
	gt.NoError(t, err)
	for _, to := range []model.Status{
		model.StatusBDMReview, model.StatusRFPBreakdown, model.StatusSMEQA,
		model.StatusContentDraft, model.StatusLegalReview, model.StatusQualityReview,
		model.StatusFinalRFP, model.StatusApprovedByVP, model.StatusSubmissionReady,
	} {
		_, err := orch.Advance(ctx, rfp.ID, to, "manual", "")
		gt.NoError(t, err)
	}

	// policy only lets vp_sales submit
	_, err = orch.Advance(ctx, rfp.ID, model.StatusSubmitted, "manual", "")
	gt.True(t, errors.Is(err, workflow.ErrInvalidTransition))

	stored, err := repo.GetRFP(ctx, rfp.ID)
	gt.NoError(t, err)
	gt.Equal(t, stored.Status, model.StatusSubmissionReady)
	gt.True(t, stored.History[len(stored.History)-1].Rejected)

	_, err = orch.Advance(ctx, rfp.ID, model.StatusSubmitted, "vp_sales", "approved")
	gt.NoError(t, err)
}
