package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg   config
		rfpID model.RFPID
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID to show",
			Required:    true,
			Destination: (*string)(&rfpID),
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show an RFP with its history and tasks",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			uc := rfp.New(repo, nil, nil)

			result, err := uc.Show(ctx, rfpID)
			if err != nil {
				return goerr.Wrap(err, "failed to show RFP")
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal RFP")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}
