package rfp

import (
	"io"
	"os"

	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/repository"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
)

// UseCase provides RFP workflow operations
type UseCase struct {
	repo         repository.Repository
	orchestrator *workflow.Orchestrator
	embedder     adapter.Embedder
	docs         adapter.DocumentStore
	output       io.Writer
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithDocumentStore enables document attachment operations
func WithDocumentStore(docs adapter.DocumentStore) Option {
	return func(uc *UseCase) {
		uc.docs = docs
	}
}

// New creates a new RFP UseCase instance. embedder may be nil; similar
// search by query text is then unavailable.
func New(
	repo repository.Repository,
	orchestrator *workflow.Orchestrator,
	embedder adapter.Embedder,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:         repo,
		orchestrator: orchestrator,
		embedder:     embedder,
		output:       os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
