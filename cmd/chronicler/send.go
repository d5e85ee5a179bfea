package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/chronicler/internal/domain"
	"github.com/bft-labs/chronicler/pkg/chronicler"
)

func newSendCommand(c *cli) *cobra.Command {
	var severity, stack string

	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a single record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sev, ok := domain.ParseSeverity(severity)
			if !ok {
				return fmt.Errorf("unknown severity %q", severity)
			}
			msg := chronicler.UserMessage{
				Message: strings.Join(args, " "),
				Stack:   stack,
			}
			return c.run(cmd.Context(), func(_ context.Context, client *chronicler.Client) error {
				return client.Log(sev, msg)
			})
		},
	}
	cmd.Flags().StringVar(&severity, "severity", "info", "severity (info, warning, error, fatal)")
	cmd.Flags().StringVar(&stack, "stack", "", "stack trace to attach")
	return cmd
}
