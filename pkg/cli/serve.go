package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/api"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/rfpstudio/rfpflow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		port int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "port",
			Usage:       "HTTP listen port",
			Value:       8080,
			Sources:     cli.EnvVars("RFPFLOW_PORT"),
			Destination: &port,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)
	flags = append(flags, workflowFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)
			logger := logging.From(ctx)

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

			var opts []rfp.Option
			if cfg.bucket != "" {
				docs, err := cfg.newDocumentStore(ctx)
				if err != nil {
					return err
				}
				opts = append(opts, rfp.WithDocumentStore(docs))
			}

			uc := rfp.New(repo, orchestrator, embedder, opts...)
			server := api.New(logger, uc)

			logger.Info("starting API server", "port", port)
			if err := server.Start(int(port)); err != nil {
				return goerr.Wrap(err, "API server stopped")
			}
			return nil
		},
	}
}
