package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/config"
	"shelfmark/internal/organizer"
	"shelfmark/internal/queue"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <record-id>",
		Short: "Reverse an applied fix, restoring the folder's previous path and identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordID := args[0]
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.logger(cfg)
				if err != nil {
					return err
				}
				org := organizer.New(store, cfg, logger)
				if err := org.Undo(cmd.Context(), recordID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Undid fix %s\n", recordID)
				return nil
			})
		},
	}
}
