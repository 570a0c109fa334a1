package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "rfpflow",
		Usage: "RFP response workflow orchestration",
		Commands: []*cli.Command{
			newCommand(),
			runCommand(),
			agentCommand(),
			showCommand(),
			listCommand(),
			similarCommand(),
			advanceCommand(),
			attachCommand(),
			knowledgeCommand(),
			serveCommand(),
			configCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
