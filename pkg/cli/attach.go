package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/adapter"
	"github.com/rfpstudio/rfpflow/pkg/model"
	"github.com/rfpstudio/rfpflow/pkg/usecase/rfp"
	"github.com/urfave/cli/v3"
)

func attachCommand() *cli.Command {
	var (
		cfg      config
		rfpID    string
		kind     string
		filePath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rfp-id",
			Aliases:     []string{"i"},
			Usage:       "RFP ID to attach the document to",
			Required:    true,
			Destination: &rfpID,
		},
		&cli.StringFlag{
			Name:        "kind",
			Aliases:     []string{"k"},
			Usage:       "Artifact slot (original, draft, final)",
			Value:       string(adapter.DocumentOriginal),
			Destination: &kind,
		},
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Path to the document file",
			Required:    true,
			Destination: &filePath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "attach",
		Usage: "Upload a document and link it to an RFP",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			f, err := os.Open(filePath)
			if err != nil {
				return goerr.Wrap(err, "failed to open document file", goerr.V("path", filePath))
			}
			defer f.Close()

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			docs, err := cfg.newDocumentStore(ctx)
			if err != nil {
				return err
			}

			uc := rfp.New(repo, nil, nil, rfp.WithDocumentStore(docs))

			updated, err := uc.Attach(ctx, rfp.AttachOptions{
				ID:      model.RFPID(rfpID),
				Kind:    adapter.DocumentKind(kind),
				Name:    filepath.Base(filePath),
				Content: f,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to attach document")
			}

			fmt.Fprintf(c.Root().Writer, "document attached to RFP %s\n", updated.ID)
			return nil
		},
	}
}
