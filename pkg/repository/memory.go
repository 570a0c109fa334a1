package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// Memory is an in-process Repository for tests and local runs without a
// Firestore backend. Similarity search is exact cosine over all stored
// vectors. Safe for concurrent use; records are deep-copied on the way
// in and out so callers never share mutable state with the store.
type Memory struct {
	mu        sync.RWMutex
	rfps      map[model.RFPID]*model.RFP
	tasks     map[model.TaskID]*model.Task
	taskOrder []model.TaskID
	knowledge map[model.KnowledgeID]*model.KnowledgeEntry
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		rfps:      make(map[model.RFPID]*model.RFP),
		tasks:     make(map[model.TaskID]*model.Task),
		knowledge: make(map[model.KnowledgeID]*model.KnowledgeEntry),
	}
}

func (r *Memory) PutRFP(ctx context.Context, rfp *model.RFP) error {
	if rfp.ID == "" {
		return goerr.New("RFP ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rfps[rfp.ID] = copyRFP(rfp)
	return nil
}

func (r *Memory) GetRFP(ctx context.Context, id model.RFPID) (*model.RFP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rfp, ok := r.rfps[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "RFP not found", goerr.V("rfp_id", id))
	}
	return copyRFP(rfp), nil
}

func (r *Memory) ListRFPs(ctx context.Context, offset, limit int) ([]*model.RFP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.RFP, 0, len(r.rfps))
	for _, rfp := range r.rfps {
		all = append(all, copyRFP(rfp))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *Memory) SearchSimilarRFPs(ctx context.Context, embedding []float32, limit int) ([]*model.RFPMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*model.RFPMatch
	for _, rfp := range r.rfps {
		if len(rfp.Embedding) == 0 {
			continue
		}
		matches = append(matches, &model.RFPMatch{
			RFP:   copyRFP(rfp),
			Score: cosineSimilarity(embedding, rfp.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *Memory) PutTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		return goerr.New("task ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[task.ID]; !exists {
		r.taskOrder = append(r.taskOrder, task.ID)
	}
	r.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *Memory) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "task not found", goerr.V("task_id", id))
	}
	return copyTask(task), nil
}

func (r *Memory) ListTasksByRFP(ctx context.Context, id model.RFPID) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []*model.Task
	for _, taskID := range r.taskOrder {
		if task := r.tasks[taskID]; task != nil && task.RFPID == id {
			tasks = append(tasks, copyTask(task))
		}
	}
	return tasks, nil
}

func (r *Memory) PutKnowledge(ctx context.Context, entry *model.KnowledgeEntry) error {
	if entry.ID == "" {
		return goerr.New("knowledge entry ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.knowledge[entry.ID] = &copied
	return nil
}

func (r *Memory) ClearKnowledge(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.knowledge)
	r.knowledge = make(map[model.KnowledgeID]*model.KnowledgeEntry)
	return count, nil
}

func (r *Memory) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*model.KnowledgeMatch
	for _, entry := range r.knowledge {
		if len(entry.Embedding) == 0 {
			continue
		}
		copied := *entry
		matches = append(matches, &model.KnowledgeMatch{
			Entry: &copied,
			Score: cosineSimilarity(embedding, entry.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func cosineSimilarity(a []float32, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func copyRFP(rfp *model.RFP) *model.RFP {
	copied := *rfp
	copied.Timeline.Milestones = append([]model.Milestone(nil), rfp.Timeline.Milestones...)
	copied.Participants.SalesTeam = append([]string(nil), rfp.Participants.SalesTeam...)
	copied.Participants.Writers = append([]string(nil), rfp.Participants.Writers...)
	copied.Participants.SMEs = append([]string(nil), rfp.Participants.SMEs...)
	copied.Tasks = append([]model.TaskRef(nil), rfp.Tasks...)
	copied.History = append([]model.HistoryEvent(nil), rfp.History...)
	copied.Metadata.Tags = append([]string(nil), rfp.Metadata.Tags...)
	return &copied
}

func copyTask(task *model.Task) *model.Task {
	copied := *task
	return &copied
}
