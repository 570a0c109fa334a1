package workflow

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// Guard evaluates Rego policies against proposed transitions. It is an
// optional veto layer on top of the Machine: a transition the Machine
// allows can still be denied by policy, but policy can never allow an
// edge the Machine rejects.
type Guard struct {
	query *rego.PreparedEvalQuery
}

// GuardInput is the Rego input document for one proposed transition.
type GuardInput struct {
	RFPID model.RFPID  `json:"rfp_id"`
	Title string       `json:"title"`
	Agent string       `json:"agent"`
	From  model.Status `json:"from"`
	To    model.Status `json:"to"`
}

// Verdict is the policy decision for one transition.
type Verdict struct {
	Allowed bool
	Reasons []string
}

// LoadGuard reads all .rego files from policyDir and prepares the
// data.workflow query. An empty directory yields a nil guard, meaning
// no policy is applied.
func LoadGuard(ctx context.Context, policyDir string) (*Guard, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.workflow"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.Value("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare workflow policy query")
	}

	return &Guard{query: &prepared}, nil
}

// NewGuardFromModules builds a guard from in-memory Rego sources keyed
// by module name. Used by tests and embedded policies.
func NewGuardFromModules(ctx context.Context, modules map[string]string) (*Guard, error) {
	options := make([]func(*rego.Rego), 0, len(modules)+1)
	options = append(options, rego.Query("data.workflow"))
	for name, src := range modules {
		options = append(options, rego.Module(name, src))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare workflow policy query")
	}
	return &Guard{query: &prepared}, nil
}

// Evaluate runs the policy for one transition. A nil guard allows
// everything. The policy denies by populating data.workflow.deny with
// reason strings.
func (g *Guard) Evaluate(ctx context.Context, input *GuardInput) (*Verdict, error) {
	if g == nil {
		return &Verdict{Allowed: true}, nil
	}

	rs, err := g.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate workflow policy")
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return &Verdict{Allowed: true}, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return &Verdict{Allowed: true}, nil
	}

	denyData, ok := data["deny"]
	if !ok {
		return &Verdict{Allowed: true}, nil
	}

	reasons, ok := denyData.([]any)
	if !ok {
		return nil, goerr.New("invalid policy result: deny is not an array")
	}

	verdict := &Verdict{Allowed: len(reasons) == 0}
	for _, r := range reasons {
		if s, ok := r.(string); ok {
			verdict.Reasons = append(verdict.Reasons, s)
		}
	}
	return verdict, nil
}
