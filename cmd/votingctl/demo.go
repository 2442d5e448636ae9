package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const demoCandidateID = 1

func newDemoCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "List candidates, vote for candidate 1, then reset the votes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), state, cmd.OutOrStdout())
		},
	}
}

// runDemo aborts only when the ledger is unknown or cannot be listed. The
// vote and reset steps log their failure and let the sequence continue.
func runDemo(ctx context.Context, state *cliState, out io.Writer) error {
	address, err := state.requireLedger()
	if err != nil {
		return err
	}
	if err := printCandidates(ctx, state, address, out); err != nil {
		return err
	}

	if err := demoVote(ctx, state, address, out); err != nil {
		state.log().Error("failed to vote",
			"event", "votingctl_demo_vote_failed",
			"ledger_address", address,
			"candidate_id", demoCandidateID,
			"error", err.Error(),
		)
	}
	if err := demoReset(ctx, state, address, out); err != nil {
		state.log().Error("failed to reset votes",
			"event", "votingctl_demo_reset_failed",
			"ledger_address", address,
			"error", err.Error(),
		)
	}
	return nil
}

func demoVote(ctx context.Context, state *cliState, address string, out io.Writer) error {
	caller, err := state.requireCaller()
	if err != nil {
		return err
	}
	client := state.client()
	if _, err := client.Vote(ctx, address, caller, demoCandidateID); err != nil {
		return err
	}
	data, err := client.CandidateData(ctx, address, demoCandidateID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Candidate %d (%s): %d votes in session %d\n", data.ID, data.Name, data.Votes, data.Session)
	fmt.Fprintf(out, "Votes successfully for candidate %d\n", demoCandidateID)
	return nil
}

func demoReset(ctx context.Context, state *cliState, address string, out io.Writer) error {
	caller, err := state.requireCaller()
	if err != nil {
		return err
	}
	if _, err := state.client().ResetVotes(ctx, address, caller); err != nil {
		return err
	}
	fmt.Fprintln(out, "Votes reset successfully")
	return nil
}
