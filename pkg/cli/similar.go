package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func similarCommand() *cli.Command {
	var (
		cfg   config
		rfpID string
		query string
		limit int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID to find similar records for",
			Destination: &rfpID,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Free-text query to search by instead of a record",
			Destination: &query,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of matches to display",
			Value:       5,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:  "similar",
		Usage: "Find past RFPs similar to a record or query",
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

			uc := rfp.New(repo, nil, embedder)

			matches, err := uc.Similar(ctx, rfp.SimilarOptions{
				ID:    model.RFPID(rfpID),
				Query: query,
				Limit: int(limit),
			})
			if err != nil {
				return goerr.Wrap(err, "similarity search failed")
			}

			w := c.Root().Writer
			if len(matches) == 0 {
				fmt.Fprintln(w, "no similar RFPs found")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(w, "%.3f  %s  %s (%s)\n", m.Score, m.RFP.ID, m.RFP.Title, m.RFP.Client.Name)
			}
			return nil
		},
	}
}
