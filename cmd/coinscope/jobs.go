package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd.Context())
			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func (a *app) groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Refresh the tracked asset groups from CoinGecko",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd.Context())
			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			sel, err := a.newImporter(repo, nil).SelectGroups(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "TOP15: %d  MEME_TOP5: %d  L1_BLUECHIP: %d  DEFI_BLUECHIP: %d\n",
				len(sel.Top15), len(sel.MemeTop5), len(sel.L1Bluechip), len(sel.DeFiBluechip))
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import missing price history for every active asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOrBackground(cmd.Context())
			repo, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			sum, err := a.newImporter(repo, nil).Import(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assets: %d  failed: %d  status: %s\n",
				sum.AssetCount, len(sum.Errors), sum.Status())
			for symbol, msg := range sum.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", symbol, msg)
			}
			return nil
		},
	}
}
