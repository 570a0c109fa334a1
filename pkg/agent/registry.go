package agent

import (
	"sort"

	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
)

// Registry maps workflow states to the agent responsible for them.
// A state with no registered agent models a stage awaiting manual or
// external action; the orchestrator halts cleanly there.
type Registry struct {
	byState map[model.Status]Agent
	byName  map[string]Agent
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byState: make(map[model.Status]Agent),
		byName:  make(map[string]Agent),
	}
}

// Register binds an agent to a state. The same agent may serve several
// states; later registrations for a state replace earlier ones.
func (r *Registry) Register(state model.Status, a Agent) {
	r.byState[state] = a
	r.byName[a.Name()] = a
}

// ForState returns the agent registered for the state, if any.
func (r *Registry) ForState(state model.Status) (Agent, bool) {
	a, ok := r.byState[state]
	return a, ok
}

// ByName returns a registered agent by its name, if any.
func (r *Registry) ByName(name string) (Agent, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names lists registered agent names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry wires the implemented pipeline: Sales handles intake
// and enrichment, BDM handles review and breakdown, and the SME router
// handles task routing. Later stages stay unregistered until their
// agents exist, so the pipeline halts at SME_QA awaiting them.
func DefaultRegistry(repo repository.Repository, embedder adapter.Embedder, threshold float64) *Registry {
	sales := NewSales(repo, embedder)
	bdm := NewBDM(repo)
	router := NewSMERouter(repo, embedder, threshold)

	r := NewRegistry()
	r.Register(model.StatusInitiated, sales)
	r.Register(model.StatusLinkedToRFP, sales)
	r.Register(model.StatusSalesAssembly, bdm)
	r.Register(model.StatusBDMReview, bdm)
	r.Register(model.StatusRFPBreakdown, router)
	return r
}

// RegisterStandIns adds the pass-through Writer, Legal and Quality
// agents. reworkTo is the state a rejected legal review routes back to;
// the corresponding edge must be configured on the workflow machine.
func (r *Registry) RegisterStandIns(repo repository.Repository, reworkTo model.Status) {
	writer := NewWriter(repo)
	r.Register(model.StatusSMEQA, writer)
	r.Register(model.StatusContentDraft, writer)
	r.Register(model.StatusLegalReview, NewLegal(reworkTo))
	r.Register(model.StatusQualityReview, NewQuality())
}
