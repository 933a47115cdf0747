package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shelfmark/internal/config"
	"shelfmark/internal/queue"
	"shelfmark/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan library roots and the watch directory for audiobook folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.logger(cfg)
				if err != nil {
					return err
				}
				summary, err := scanner.New(store, cfg, logger).Scan(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderScanSummary(summary))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func renderScanSummary(summary scanner.Summary) string {
	rows := [][]string{
		{"Roots scanned", strconv.Itoa(summary.RootsScanned)},
		{"Folders seen", strconv.Itoa(summary.FoldersSeen)},
		{"Books found", strconv.Itoa(summary.BooksFound)},
		{"New items queued", strconv.Itoa(summary.NewItems)},
		{"Already known", strconv.Itoa(summary.AlreadyKnown)},
		{"Loose files", strconv.Itoa(summary.LooseFiles)},
	}
	return renderTable([]string{"Scan", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
