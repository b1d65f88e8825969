package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) analyzeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Print one asset's analytics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd.Context())
			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			d, err := a.newService(repo, nil).Detail(ctx, args[0], days)
			if err != nil {
				return err
			}
			renderDetail(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Display window in days (default from server.default_days)")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Print recorded score snapshots for one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := a.openRecorder()
			defer rec.Close()

			symbol := strings.ToUpper(args[0])
			snaps, err := rec.History(symbol, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), symbol, snaps)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "Number of snapshots to show")
	return cmd
}
