package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoteCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <id>",
		Short: "Cast one vote for a candidate in the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			caller, err := state.requireCaller()
			if err != nil {
				return err
			}
			id, err := parseUint("id", args[0])
			if err != nil {
				return err
			}
			vote, err := state.client().Vote(cmd.Context(), address, caller, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voted for candidate %d: %d votes in session %d\n", vote.CandidateID, vote.Count, vote.Session)
			return nil
		},
	}
}

func newAddCandidateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "add-candidate <name>",
		Short: "Register a candidate (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			caller, err := state.requireCaller()
			if err != nil {
				return err
			}
			added, err := state.client().AddCandidate(cmd.Context(), address, caller, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Candidate %d added: %s\n", added.Candidate.ID, added.Candidate.Name)
			return nil
		},
	}
}

func newResetCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a new voting session (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			caller, err := state.requireCaller()
			if err != nil {
				return err
			}
			reset, err := state.client().ResetVotes(cmd.Context(), address, caller)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Votes reset successfully (session %d -> %d)\n", reset.PreviousSession, reset.Session)
			return nil
		},
	}
}
