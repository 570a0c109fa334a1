package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/rfpstudio/rfpflow/pkg/agent"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
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
		return []float32{0.9, 0, 0.436}
	case strings.Contains(t, "legacy"):
		return []float32{0.5, 0, 0.866}
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

func TestSalesCreate(t *testing.T) {
	repo := repository.NewMemory()
	sales := agent.NewSales(repo, &stubEmbedder{})

	result, err := sales.Invoke(context.Background(), &agent.Input{
		Payload: map[string]any{
			"title":       "Security audit RFP",
			"client_name": "Initech",
			"industry":    "finance",
			"tags":        []string{"audit"},
		},
	})
	gt.NoError(t, err)
	gt.V(t, result.Record).NotNil()
	gt.Equal(t, result.Record.Status, model.StatusInitiated)
	gt.Equal(t, result.Record.Title, "Security audit RFP")
	gt.Equal(t, result.Record.Client.Name, "Initech")
	gt.Equal(t, result.NextState, model.StatusLinkedToRFP)
	gt.A(t, []float32(result.Record.Embedding)).Length(3)
	gt.A(t, result.Events).Length(1)
	gt.Equal(t, result.Events[0], "rfp_created")
}

func TestSalesCreateMissingFields(t *testing.T) {
	sales := agent.NewSales(repository.NewMemory(), nil)

	_, err := sales.Invoke(context.Background(), &agent.Input{
		Payload: map[string]any{"client_name": "Initech"},
	})
	gt.True(t, errors.Is(err, agent.ErrExecution))

	_, err = sales.Invoke(context.Background(), &agent.Input{
		Payload: map[string]any{"title": "RFP"},
	})
	gt.True(t, errors.Is(err, agent.ErrExecution))
}

func TestSalesCreateWithoutEmbedder(t *testing.T) {
	sales := agent.NewSales(repository.NewMemory(), nil)

	result, err := sales.Invoke(context.Background(), &agent.Input{
		Payload: map[string]any{
			"title":       "Network RFP",
			"client_name": "Globex",
		},
	})
	gt.NoError(t, err)
	gt.A(t, []float32(result.Record.Embedding)).Length(0)

	var skipped bool
	for _, ev := range result.Events {
		if ev == "embedding_skipped" {
			skipped = true
		}
	}
	gt.True(t, skipped)
}

func TestSalesEnrichIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	sales := agent.NewSales(repo, nil)

	now := time.Now()
	stored := &model.RFP{
		ID:        model.NewRFPID(),
		Title:     "Network RFP",
		Status:    model.StatusLinkedToRFP,
		Client:    model.ClientInfo{Name: "Globex"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	gt.NoError(t, repo.PutRFP(ctx, stored))

	payload := map[string]any{
		"due_date":   "2026-11-30",
		"sales_team": []string{"ann"},
	}

	first, err := sales.Invoke(ctx, &agent.Input{RFPID: stored.ID, Payload: payload})
	gt.NoError(t, err)
	gt.Equal(t, first.NextState, model.StatusSalesAssembly)
	gt.Equal(t, first.Events[0], "rfp_enriched_by_sales")

	first.Patch.Apply(stored)
	stored.Status = model.StatusSalesAssembly
	gt.NoError(t, repo.PutRFP(ctx, stored))

	// same payload again: nothing new to merge, no transition proposed
	second, err := sales.Invoke(ctx, &agent.Input{RFPID: stored.ID, Payload: payload})
	gt.NoError(t, err)
	gt.Equal(t, second.NextState, model.Status(""))

	before := *stored
	second.Patch.Apply(stored)
	gt.Equal(t, stored.Timeline.DueDate, before.Timeline.DueDate)
	gt.A(t, stored.Participants.SalesTeam).Length(1)
}
