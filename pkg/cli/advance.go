package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func advanceCommand() *cli.Command {
	var (
		cfg   config
		rfpID string
		to    string
		actor string
		note  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID to advance",
			Required:    true,
			Destination: &rfpID,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Target workflow state",
			Required:    true,
			Destination: &to,
		},
		&cli.StringFlag{
			Name:        "actor",
			Aliases:     []string{"a"},
			Usage:       "Who performs the transition (e.g. vp_sales)",
			Destination: &actor,
		},
		&cli.StringFlag{
			Name:        "note",
			Usage:       "Audit note recorded with the transition",
			Destination: &note,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, workflowFlags(&cfg)...)

	return &cli.Command{
		Name:  "advance",
		Usage: "Manually advance an RFP to the next workflow state",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			target := model.Status(strings.ToUpper(to))
			if err := target.Validate(); err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			orchestrator, err := cfg.newOrchestrator(ctx, repo, nil)
			if err != nil {
				return err
			}

			uc := rfp.New(repo, orchestrator, nil)

			advanced, err := uc.Advance(ctx, rfp.AdvanceOptions{
				ID:    model.RFPID(rfpID),
				To:    target,
				Actor: actor,
				Note:  note,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to advance RFP")
			}

			fmt.Fprintf(c.Root().Writer, "RFP %s advanced to %s\n", advanced.ID, advanced.Status)
			return nil
		},
	}
}
