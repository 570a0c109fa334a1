package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	var (
		cfg  config
		opts rfp.CreateOptions
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "RFP title",
			Required:    true,
			Destination: &opts.Title,
		},
		&cli.StringFlag{
			Name:        "client",
			Aliases:     []string{"c"},
			Usage:       "Client organization name",
			Required:    true,
			Destination: &opts.ClientName,
		},
		&cli.StringFlag{
			Name:        "contact",
			Usage:       "Client contact",
			Destination: &opts.ClientContact,
		},
		&cli.StringFlag{
			Name:        "received",
			Usage:       "Date the RFP was received (YYYY-MM-DD)",
			Destination: &opts.ReceivedDate,
		},
		&cli.StringFlag{
			Name:        "due",
			Usage:       "Submission due date (YYYY-MM-DD)",
			Destination: &opts.DueDate,
		},
		&cli.StringSliceFlag{
			Name:        "sales",
			Usage:       "Sales team members",
			Destination: &opts.SalesTeam,
		},
		&cli.StringFlag{
			Name:        "industry",
			Usage:       "Client industry",
			Destination: &opts.Industry,
		},
		&cli.StringFlag{
			Name:        "size",
			Usage:       "RFP size estimate (small, medium, large)",
			Destination: &opts.RFPSize,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Free-form tags",
			Destination: &opts.Tags,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)
	flags = append(flags, workflowFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Create a new RFP record from intake data",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

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

			created, err := uc.Create(ctx, opts)
			if err != nil {
				return goerr.Wrap(err, "failed to create RFP")
			}

			fmt.Fprintf(c.Root().Writer, "RFP created: %s (%s)\n", created.ID, created.Status)
			return nil
		},
	}
}
