package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/config"
	"shelfmark/internal/queue"
)

// processStatuses mirrors the statuses the daemon worker claims.
var processStatuses = []queue.ItemStatus{
	queue.StatusQueued,
	queue.StatusLookingUp,
	queue.StatusAwaitingOracle,
	queue.StatusAwaitingAudio,
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process pending queue items once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.logger(cfg)
				if err != nil {
					return err
				}
				pipe, err := buildPipeline(cfg, store, logger)
				if err != nil {
					return err
				}

				processed := 0
				failed := 0
				for limit <= 0 || processed < limit {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					item, err := store.Claim(cmd.Context(), processStatuses...)
					if err != nil {
						return err
					}
					if item == nil {
						break
					}
					if err := pipe.ProcessItem(cmd.Context(), item); err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "item %d (%s): %v\n", item.ID, item.Path, err)
					}
					if err := store.Release(cmd.Context(), item.ID); err != nil {
						return err
					}
					processed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d item(s), %d failed\n", processed, failed)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of items to process (0 = no limit)")
	return cmd
}
