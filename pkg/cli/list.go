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

func listCommand() *cli.Command {
	var (
		cfg    config
		status string
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "status",
			Aliases:     []string{"s"},
			Usage:       "Filter by workflow status",
			Destination: &status,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Number of records to skip",
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of records to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List RFP records",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			var statusFilter model.Status
			if status != "" {
				statusFilter = model.Status(strings.ToUpper(status))
				if err := statusFilter.Validate(); err != nil {
					return err
				}
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			uc := rfp.New(repo, nil, nil)

			rfps, err := uc.List(ctx, rfp.ListOptions{
				Status: statusFilter,
				Offset: int(offset),
				Limit:  int(limit),
			})
			if err != nil {
				return goerr.Wrap(err, "failed to list RFPs")
			}

			w := c.Root().Writer
			if len(rfps) == 0 {
				fmt.Fprintln(w, "no RFPs found")
				return nil
			}
			for _, r := range rfps {
				fmt.Fprintf(w, "%s  %-16s  %s (%s)\n", r.ID, r.Status, r.Title, r.Client.Name)
			}
			return nil
		},
	}
}
