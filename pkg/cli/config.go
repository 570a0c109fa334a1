package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/agent"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/repository"
	"github.com/rfpstudio/rfpflow/pkg/utils/logging"
	"github.com/rfpstudio/rfpflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string
	memory   bool

	// Embedding
	geminiProject  string
	geminiLocation string

	// Storage
	bucket string

	// Workflow
	policyDir string
	reworkTo  string
	threshold float64
	standIns  bool

	// Logging
	logLevel  string
	logFormat string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.BoolFlag{
			Name:        "memory",
			Usage:       "Use an in-memory repository instead of Firestore (data is lost on exit)",
			Sources:     cli.EnvVars("RFPFLOW_MEMORY"),
			Destination: &cfg.memory,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RFPFLOW_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("RFPFLOW_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// embeddingFlags returns flags for the Gemini embedding backend
func embeddingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini (defaults to --project)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// workflowFlags returns flags for pipeline behavior
func workflowFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Directory of Rego policy files guarding transitions",
			Sources:     cli.EnvVars("RFPFLOW_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "rework-to",
			Usage:       "State a rejected legal review routes back to",
			Value:       string(model.StatusContentDraft),
			Sources:     cli.EnvVars("RFPFLOW_REWORK_TO"),
			Destination: &cfg.reworkTo,
		},
		&cli.FloatFlag{
			Name:        "threshold",
			Usage:       "Minimum similarity score for SME task routing",
			Value:       agent.DefaultRoutingThreshold,
			Sources:     cli.EnvVars("RFPFLOW_ROUTING_THRESHOLD"),
			Destination: &cfg.threshold,
		},
		&cli.BoolFlag{
			Name:        "stand-ins",
			Usage:       "Register pass-through writer/legal/quality agents",
			Sources:     cli.EnvVars("RFPFLOW_STAND_INS"),
			Destination: &cfg.standIns,
		},
	}
}

// storageFlags returns flags for the document store
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for RFP documents",
			Sources:     cli.EnvVars("RFPFLOW_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// loggingContext installs a logger built from the config into the context
func (cfg *config) loggingContext(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, cfg.logFormat, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates the configured repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.memory {
		return repository.NewMemory(), nil
	}

	if cfg.project == "" {
		return nil, goerr.New("project is required (or use --memory)")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newEmbedder creates the Gemini embedding backend. Returns nil without
// error when no project is configured; callers that require embeddings
// fail at use time with a clear error.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	project := cfg.geminiProject
	if project == "" {
		project = cfg.project
	}
	if project == "" {
		return nil, nil
	}

	gemini, err := adapter.NewGemini(ctx, project, cfg.geminiLocation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding backend")
	}
	return gemini, nil
}

// newDocumentStore creates the Cloud Storage document store
func (cfg *config) newDocumentStore(ctx context.Context) (adapter.DocumentStore, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket is required")
	}
	return adapter.NewDocumentStore(ctx, cfg.bucket)
}

// reworkStatus parses and validates the configured rework target
func (cfg *config) reworkStatus() (model.Status, error) {
	s := model.Status(strings.ToUpper(cfg.reworkTo))
	if err := s.Validate(); err != nil {
		return "", goerr.Wrap(err, "invalid rework-to state")
	}
	return s, nil
}

// newOrchestrator assembles the workflow machine, agent registry and
// optional policy guard into an orchestrator.
func (cfg *config) newOrchestrator(ctx context.Context, repo repository.Repository, embedder adapter.Embedder) (*workflow.Orchestrator, error) {
	reworkTo, err := cfg.reworkStatus()
	if err != nil {
		return nil, err
	}

	machine := workflow.NewMachine(
		workflow.WithTransition(model.StatusLegalReview, reworkTo),
	)

	registry := agent.DefaultRegistry(repo, embedder, cfg.threshold)
	if cfg.standIns {
		registry.RegisterStandIns(repo, reworkTo)
	}

	var opts []workflow.OrchestratorOption
	if cfg.policyDir != "" {
		guard, err := workflow.LoadGuard(ctx, cfg.policyDir)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			opts = append(opts, workflow.WithGuard(guard))
		}
	}

	return workflow.NewOrchestrator(repo, registry, machine, opts...), nil
}

// configCommand prints the resolved configuration after flag and env
// var sources are applied.
func configCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, embeddingFlags(&cfg)...)
	flags = append(flags, workflowFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "config",
		Usage: "Show the resolved configuration",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			fmt.Fprintf(w, "project:         %s\n", cfg.project)
			fmt.Fprintf(w, "database:        %s\n", cfg.database)
			fmt.Fprintf(w, "memory:          %t\n", cfg.memory)
			fmt.Fprintf(w, "gemini-project:  %s\n", cfg.geminiProject)
			fmt.Fprintf(w, "gemini-location: %s\n", cfg.geminiLocation)
			fmt.Fprintf(w, "bucket:          %s\n", cfg.bucket)
			fmt.Fprintf(w, "policy:          %s\n", cfg.policyDir)
			fmt.Fprintf(w, "rework-to:       %s\n", cfg.reworkTo)
			fmt.Fprintf(w, "threshold:       %.2f\n", cfg.threshold)
			fmt.Fprintf(w, "stand-ins:       %t\n", cfg.standIns)
			fmt.Fprintf(w, "log-level:       %s\n", cfg.logLevel)
			fmt.Fprintf(w, "log-format:      %s\n", cfg.logFormat)
			return nil
		},
	}
}
