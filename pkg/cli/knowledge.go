package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/knowledge"
	"github.com/urfave/cli/v3"
)

func knowledgeCommand() *cli.Command {
	return &cli.Command{
		Name:  "knowledge",
		Usage: "Manage the SME knowledge base",
		Commands: []*cli.Command{
			knowledgeLoadCommand(),
			knowledgeClearCommand(),
		},
	}
}

func knowledgeLoadCommand() *cli.Command {
	var (
		cfg config
		dir string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Directory of knowledge base YAML files",
			Required:    true,
			Destination: &dir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, embeddingFlags(&cfg)...)

	return &cli.Command{
		Name:  "load",
		Usage: "Load and embed knowledge base entries from YAML files",
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
			if embedder == nil {
				return goerr.New("an embedding backend is required to load knowledge")
			}

			loader := knowledge.NewLoader(repo, embedder)
			n, err := loader.LoadDir(ctx, dir)
			if err != nil {
				return goerr.Wrap(err, "failed to load knowledge base")
			}

			fmt.Fprintf(c.Root().Writer, "loaded %d knowledge entries\n", n)
			return nil
		},
	}
}

func knowledgeClearCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:  "clear",
		Usage: "Remove all knowledge base entries",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			n, err := repo.ClearKnowledge(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to clear knowledge base")
			}

			fmt.Fprintf(c.Root().Writer, "removed %d knowledge entries\n", n)
			return nil
		},
	}
}
