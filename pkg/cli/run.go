package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

// loadPayload reads an optional JSON payload file for agent input.
func loadPayload(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read payload file", goerr.V("path", path))
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, goerr.Wrap(err, "failed to parse payload JSON", goerr.V("path", path))
	}
	return payload, nil
}

func runCommand() *cli.Command {
	var (
		cfg         config
		rfpID       string
		payloadPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID to run the pipeline for",
			Required:    true,
			Destination: &rfpID,
		},
		&cli.StringFlag{
			Name:        "payload",
			Usage:       "Path to JSON file with agent payload data",
			Destination: &payloadPath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)
	flags = append(flags, workflowFlags(&cfg)...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run the agent pipeline for an RFP until it halts",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			payload, err := loadPayload(payloadPath)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}

			orchestrator, err := cfg.newOrchestrator(ctx, repo, embedder)
			if err != nil {
				return err
			}

			uc := rfp.New(repo, orchestrator, embedder)

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " running pipeline..."
			sp.Start()
			result, err := uc.Run(ctx, model.RFPID(rfpID), payload)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "pipeline run failed")
			}

			w := c.Root().Writer
			for _, step := range result.Steps {
				fmt.Fprintf(w, "%s: %s -> %s\n", step.Agent, step.From, step.To)
				for _, ev := range step.Events {
					fmt.Fprintf(w, "  - %s\n", ev)
				}
			}
			fmt.Fprintf(w, "halted: %s (status %s)\n", result.Halt, result.RFP.Status)
			return nil
		},
	}
}
