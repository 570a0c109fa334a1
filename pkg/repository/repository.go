package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

var (
	ErrNotFound = goerr.New("record not found")
)

// Repository is the persistence boundary of the workflow core. It is
// the sole owner of records: the orchestrator borrows an RFP for one
// step and writes it back through Put.
type Repository interface {
	// PutRFP saves an RFP record, creating or overwriting it
	PutRFP(ctx context.Context, rfp *model.RFP) error

	// GetRFP retrieves an RFP by ID; ErrNotFound when absent
	GetRFP(ctx context.Context, id model.RFPID) (*model.RFP, error)

	// ListRFPs retrieves RFPs ordered by creation time descending
	ListRFPs(ctx context.Context, offset, limit int) ([]*model.RFP, error)

	// SearchSimilarRFPs performs vector search over stored RFP embeddings
	SearchSimilarRFPs(ctx context.Context, embedding []float32, limit int) ([]*model.RFPMatch, error)

	// PutTask saves a task document
	PutTask(ctx context.Context, task *model.Task) error

	// GetTask retrieves a task by ID; ErrNotFound when absent
	GetTask(ctx context.Context, id model.TaskID) (*model.Task, error)

	// ListTasksByRFP retrieves all tasks owned by an RFP in creation order
	ListTasksByRFP(ctx context.Context, id model.RFPID) ([]*model.Task, error)

	// PutKnowledge saves a knowledge base entry
	PutKnowledge(ctx context.Context, entry *model.KnowledgeEntry) error

	// ClearKnowledge removes all knowledge entries and reports the count
	ClearKnowledge(ctx context.Context) (int, error)

	// SearchKnowledge performs vector search over the knowledge base
	SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*model.KnowledgeMatch, error)
}
