package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/bft-labs/chronicler/pkg/chronicler"
)

func newReportCommand(c *cli) *cobra.Command {
	var form chronicler.UserErrorForm

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Upload a user error form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Title == "" && form.Body == "" {
				return errors.New("--title or --body is required")
			}
			client, err := c.newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.HTTPTimeout)
			defer cancel()
			if err := client.SendUserErrorForm(ctx, form); err != nil {
				return err
			}
			c.logger.Info("user error form uploaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "form title")
	cmd.Flags().StringVar(&form.Body, "body", "", "form body")
	cmd.Flags().StringVar(&form.Page, "form-page", "", "page the form refers to (default: --page)")
	return cmd
}
