package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func agentCommand() *cli.Command {
	var (
		cfg         config
		agentName   string
		rfpID       string
		payloadPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Agent name to invoke (sales, bdm, sme_router, ...)",
			Required:    true,
			Destination: &agentName,
		},
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID (omit for record-creating agents)",
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
		Name:  "agent",
		Usage: "Invoke a single agent against an RFP",
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

			result, err := uc.RunAgent(ctx, agentName, model.RFPID(rfpID), payload)
			if err != nil {
				return goerr.Wrap(err, "agent invocation failed")
			}

			w := c.Root().Writer
			for _, step := range result.Steps {
				fmt.Fprintf(w, "%s: %s -> %s\n", step.Agent, step.From, step.To)
				for _, ev := range step.Events {
					fmt.Fprintf(w, "  - %s\n", ev)
				}
			}
			fmt.Fprintf(w, "status: %s\n", result.RFP.Status)
			return nil
		},
	}
}
