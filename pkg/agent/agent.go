package agent

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

var (
	// ErrExecution signals that an agent could not complete its role:
	// missing payload fields, missing records, downstream failures.
	// The orchestrator commits nothing when this is returned.
	ErrExecution = goerr.New("agent execution failed")
)

// Input is the shared invocation contract. RFPID is empty when the
// agent is expected to create a new record. Payload carries
// agent-specific data; Context carries orchestration metadata
// accumulated across pipeline steps.
type Input struct {
	RFPID   model.RFPID
	Payload map[string]any
	Context map[string]any
}

// Result is the standardized agent output. Agents never write to the
// repository; everything they want persisted is returned here and
// committed by the orchestrator in one step.
type Result struct {
	// Record is set only when the agent created a new RFP (Sales with
	// an empty RFPID). Its status must be the initial state.
	Record *model.RFP

	// Patch is a partial field update merged into the record.
	Patch *model.RFPPatch

	// Tasks are new or modified task documents to persist.
	Tasks []*model.Task

	// Events are appended to the step's history entry.
	Events []string

	// NextState is the advisory transition proposal. Empty means the
	// agent proposes no transition; the pipeline halts after the commit.
	NextState model.Status
}

// Agent is one processing stage of the RFP pipeline.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, in *Input) (*Result, error)
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadStrings(payload map[string]any, key string) []string {
	if payload == nil {
		return nil
	}

	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func payloadBool(payload map[string]any, key string, fallback bool) bool {
	if payload == nil {
		return fallback
	}
	if b, ok := payload[key].(bool); ok {
		return b
	}
	return fallback
}
