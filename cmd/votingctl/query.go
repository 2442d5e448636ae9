package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func newCandidatesCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List every registered candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			return printCandidates(cmd.Context(), state, address, cmd.OutOrStdout())
		},
	}
}

func printCandidates(ctx context.Context, state *cliState, address string, out io.Writer) error {
	candidates, err := state.client().Candidates(ctx, address)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Displaying all candidates")
	for _, candidate := range candidates {
		fmt.Fprintf(out, "%d\t%s\n", candidate.ID, candidate.Name)
	}
	return nil
}

func newCandidateCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "candidate <id>",
		Short: "Show a candidate with its votes in the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			id, err := parseUint("id", args[0])
			if err != nil {
				return err
			}
			data, err := state.client().CandidateData(cmd.Context(), address, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tsession=%d\tvotes=%d\n", data.ID, data.Name, data.Session, data.Votes)
			return nil
		},
	}
}

func newCountCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "count <session> <id>",
		Short: "Print the votes a candidate received in a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			session, err := parseUint("session", args[0])
			if err != nil {
				return err
			}
			id, err := parseUint("id", args[1])
			if err != nil {
				return err
			}
			count, err := state.client().VoteCount(cmd.Context(), address, session, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newSessionCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the current voting session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			session, err := state.client().CurrentSession(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session)
			return nil
		},
	}
}

func newOwnerCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Print the ledger owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			owner, err := state.client().Owner(cmd.Context(), address)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), owner)
			return nil
		},
	}
}

func newEventsCmd(state *cliState) *cobra.Command {
	var (
		after uint64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the ledger event log in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := state.requireLedger()
			if err != nil {
				return err
			}
			events, err := state.client().Events(cmd.Context(), address, after, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, event := range events {
				args, err := json.Marshal(event.Args)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%s\t%s\n", event.Sequence, event.Type, args)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&after, "after", 0, "only events with a larger sequence")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (server default when 0)")
	return cmd
}

func parseUint(name string, raw string) (uint64, error) {
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}
