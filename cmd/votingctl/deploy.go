package main

import (
	"fmt"

	"ballotbox/internal/platform/config"

	"github.com/spf13/cobra"
)

func newDeployCmd(state *cliState, defaultAdmin string) *cobra.Command {
	var admin string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new voting ledger owned by the admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Require("ADMIN", admin); err != nil {
				return err
			}
			deployed, err := state.client().Deploy(cmd.Context(), admin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voting deployed to %s\n", deployed.Ledger.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&admin, "admin", defaultAdmin, "owner of the new ledger (ADMIN)")
	return cmd
}
