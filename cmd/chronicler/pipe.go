package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/bft-labs/chronicler/internal/adapters/jsonl"
	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/pkg/chronicler"
	"github.com/bft-labs/chronicler/pkg/log"
)

func newPipeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "pipe",
		Short: "Forward JSON-lines engine messages from stdin",
		Long: `Each stdin line is one message as produced by an embedding facade:

  {"message": {"message": "...", "page": "...", "severity": {"name": "error", "value": 2}},
   "url": "...", "windowClosed": false, "key": "..."}

An empty url or key falls back to the configured endpoint and key.
Malformed lines are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), func(ctx context.Context, client *chronicler.Client) error {
				return forwardAll(ctx, jsonl.NewDecoder(cmd.InOrStdin()), client, c.logger)
			})
		},
	}
}

type forwarder interface {
	Forward(chronicler.Message) error
}

func forwardAll(ctx context.Context, dec *jsonl.Decoder, client forwarder, logger log.Logger) error {
	for ctx.Err() == nil {
		msg, err := dec.Next()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, domain.ErrInvalidMessage):
			logger.Warn("skipping malformed message", log.Err(err))
			continue
		case err != nil:
			return err
		}
		if err := client.Forward(msg); err != nil {
			if errors.Is(err, domain.ErrInvalidMessage) {
				logger.Warn("skipping invalid message", log.Err(err))
				continue
			}
			return err
		}
	}
	return nil
}
