package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/agent"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
	"github.com/rfpstudio/rfpflow/pkg/utils/logging"
)

// maxPipelineSteps bounds one Run; a policy-induced rework cycle must
// not spin forever.
const maxPipelineSteps = 32

// Step is the committed outcome of one agent invocation.
type Step struct {
	Agent  string
	From   model.Status
	To     model.Status
	Events []string
}

// RunResult is what a pipeline run hands back to the caller: the last
// committed record and every committed step. Halt explains why the
// loop stopped when no error occurred.
type RunResult struct {
	RFP   *model.RFP
	Steps []Step
	Halt  string
}

// Orchestrator drives agents over one record at a time. It is the only
// component that mutates a record's status or history: agents return
// proposals, and the single commit point applies them after the machine
// (and optional guard) validated the transition.
type Orchestrator struct {
	repo     repository.Repository
	registry *agent.Registry
	machine  *Machine
	guard    *Guard
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithGuard installs a Rego transition guard.
func WithGuard(g *Guard) OrchestratorOption {
	return func(o *Orchestrator) {
		o.guard = g
	}
}

// NewOrchestrator creates an orchestrator over the given collaborators
func NewOrchestrator(repo repository.Repository, registry *agent.Registry, machine *Machine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		repo:     repo,
		registry: registry,
		machine:  machine,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for one record until a terminal state, an
// unregistered state, a missing proposal, or an error. An empty id
// starts from INITIATED and expects the first agent to create the
// record. Distinct records may be run concurrently; a single record is
// processed strictly sequentially.
func (o *Orchestrator) Run(ctx context.Context, id model.RFPID, payload map[string]any) (*RunResult, error) {
	logger := logging.From(ctx)

	var rfp *model.RFP
	if id != "" {
		loaded, err := o.repo.GetRFP(ctx, id)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load RFP for pipeline run", goerr.V("rfp_id", id))
		}
		rfp = loaded
	}

	result := &RunResult{}
	runContext := map[string]any{}

	for len(result.Steps) < maxPipelineSteps {
		state := model.StatusInitiated
		if rfp != nil {
			state = rfp.Status
		}

		if o.machine.IsTerminal(state) {
			result.Halt = "terminal state reached"
			break
		}

		ag, ok := o.registry.ForState(state)
		if !ok {
			result.Halt = fmt.Sprintf("awaiting external action at %s", state)
			break
		}

		committed, step, err := o.step(ctx, ag, rfp, payload, runContext)
		if err != nil {
			result.RFP = rfp
			return result, err
		}
		rfp = committed
		result.Steps = append(result.Steps, *step)
		runContext[ag.Name()] = step.Events

		logger.Info("pipeline step committed",
			"agent", ag.Name(), "rfp_id", rfp.ID, "from", step.From, "to", step.To)

		if step.To == step.From {
			result.Halt = "no transition proposed"
			break
		}
	}

	if result.Halt == "" && len(result.Steps) >= maxPipelineSteps {
		result.RFP = rfp
		return result, goerr.New("pipeline exceeded step limit", goerr.V("limit", maxPipelineSteps))
	}

	result.RFP = rfp
	return result, nil
}

// RunAgent executes a single named agent against a record. An empty id
// is only valid for record-creating agents.
func (o *Orchestrator) RunAgent(ctx context.Context, name string, id model.RFPID, payload map[string]any) (*RunResult, error) {
	ag, ok := o.registry.ByName(name)
	if !ok {
		return nil, goerr.New("unknown agent", goerr.V("agent", name),
			goerr.V("registered", o.registry.Names()))
	}

	var rfp *model.RFP
	if id != "" {
		loaded, err := o.repo.GetRFP(ctx, id)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load RFP", goerr.V("rfp_id", id))
		}
		rfp = loaded
	}

	committed, step, err := o.step(ctx, ag, rfp, payload, map[string]any{})
	if err != nil {
		return &RunResult{RFP: rfp}, err
	}
	return &RunResult{RFP: committed, Steps: []Step{*step}}, nil
}

// Advance commits a manual transition for stages without a registered
// agent (e.g. VP approval). The machine and guard still validate it.
func (o *Orchestrator) Advance(ctx context.Context, id model.RFPID, to model.Status, actor, note string) (*model.RFP, error) {
	rfp, err := o.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load RFP", goerr.V("rfp_id", id))
	}

	if err := o.validate(ctx, rfp, actor, rfp.Status, to); err != nil {
		return nil, err
	}

	now := time.Now()
	rfp.History = append(rfp.History, model.HistoryEvent{
		Timestamp: now,
		Actor:     actor,
		From:      rfp.Status,
		To:        to,
		Note:      note,
	})
	rfp.Status = to
	rfp.UpdatedAt = now

	if err := o.repo.PutRFP(ctx, rfp); err != nil {
		return nil, goerr.Wrap(err, "failed to persist advanced RFP", goerr.V("rfp_id", id))
	}
	return rfp, nil
}

// step invokes one agent and commits its result. This is the system's
// single commit point: nothing is persisted before the proposed
// transition passed validation, and an agent failure commits nothing.
func (o *Orchestrator) step(ctx context.Context, ag agent.Agent, rfp *model.RFP, payload map[string]any, runContext map[string]any) (*model.RFP, *Step, error) {
	in := &agent.Input{
		Payload: payload,
		Context: runContext,
	}
	if rfp != nil {
		in.RFPID = rfp.ID
	}

	res, err := ag.Invoke(ctx, in)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "agent invocation failed", goerr.V("agent", ag.Name()))
	}

	if rfp == nil {
		if res.Record == nil {
			return nil, nil, goerr.Wrap(agent.ErrExecution, "agent returned no record for empty id",
				goerr.V("agent", ag.Name()))
		}
		rfp = res.Record
		if rfp.Status == "" {
			rfp.Status = model.StatusInitiated
		}
	}

	from := rfp.Status
	to := res.NextState
	if to == "" {
		to = from
	}

	if to != from {
		if err := o.validate(ctx, rfp, ag.Name(), from, to); err != nil {
			return nil, nil, err
		}
	}

	// Commit: merge the patch, persist task documents, then write the
	// record with its new status and one history entry for this step.
	if err := ctx.Err(); err != nil {
		return nil, nil, goerr.Wrap(err, "pipeline cancelled before commit")
	}

	res.Patch.Apply(rfp)

	for _, task := range res.Tasks {
		if err := o.repo.PutTask(ctx, task); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to persist task",
				goerr.V("task_id", task.ID), goerr.V("agent", ag.Name()))
		}
	}

	now := time.Now()
	rfp.History = append(rfp.History, model.HistoryEvent{
		Timestamp: now,
		Actor:     ag.Name(),
		From:      from,
		To:        to,
		Events:    res.Events,
	})
	rfp.Status = to
	rfp.UpdatedAt = now

	if err := o.repo.PutRFP(ctx, rfp); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to persist RFP", goerr.V("rfp_id", rfp.ID))
	}

	return rfp, &Step{Agent: ag.Name(), From: from, To: to, Events: res.Events}, nil
}

// validate checks a proposed transition against the machine and guard.
// An illegal proposal leaves the status untouched but persists a
// rejected audit entry before the error is returned.
func (o *Orchestrator) validate(ctx context.Context, rfp *model.RFP, actor string, from, to model.Status) error {
	if err := o.machine.Validate(from, to); err != nil {
		o.logRejection(ctx, rfp, actor, from, to, "unreachable state")
		return err
	}

	verdict, err := o.guard.Evaluate(ctx, &GuardInput{
		RFPID: rfp.ID,
		Title: rfp.Title,
		Agent: actor,
		From:  from,
		To:    to,
	})
	if err != nil {
		return goerr.Wrap(err, "transition guard evaluation failed")
	}
	if !verdict.Allowed {
		reason := strings.Join(verdict.Reasons, "; ")
		o.logRejection(ctx, rfp, actor, from, to, reason)
		return goerr.Wrap(ErrInvalidTransition, "transition denied by policy",
			goerr.V("from", from), goerr.V("to", to), goerr.V("reasons", verdict.Reasons))
	}
	return nil
}

func (o *Orchestrator) logRejection(ctx context.Context, rfp *model.RFP, actor string, from, to model.Status, note string) {
	rfp.History = append(rfp.History, model.HistoryEvent{
		Timestamp: time.Now(),
		Actor:     actor,
		From:      from,
		To:        to,
		Note:      note,
		Rejected:  true,
	})

	// Audit trail write; the rejection error itself is reported to the
	// caller even if this persist fails.
	if err := o.repo.PutRFP(ctx, rfp); err != nil {
		logging.From(ctx).Warn("failed to persist rejected transition event",
			"rfp_id", rfp.ID, "error", err)
	}
}
