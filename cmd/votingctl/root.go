package main

import (
	"log/slog"

	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/ledgerclient"

	"github.com/spf13/cobra"
)

// cliState holds the resolved global flags. Flag defaults come from the
// environment so an explicit flag always wins.
type cliState struct {
	apiURL string
	ledger string
	caller string
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:           "votingctl",
		Short:         "Deploy and operate voting ledgers through the ballotbox API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			state.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&state.apiURL, "api", cfg.APIURL, "ledger API base URL (VOTING_API_URL)")
	flags.StringVar(&state.ledger, "ledger", cfg.LedgerAddress, "ledger address (VOTING_ADDRESS)")
	flags.StringVar(&state.caller, "from", cfg.CallerAddress, "account the mutating calls act as (CALLER_ADDRESS)")

	rootCmd.AddCommand(
		newDeployCmd(state, cfg.Admin),
		newDemoCmd(state),
		newCandidatesCmd(state),
		newCandidateCmd(state),
		newCountCmd(state),
		newSessionCmd(state),
		newOwnerCmd(state),
		newEventsCmd(state),
		newVoteCmd(state),
		newAddCandidateCmd(state),
		newResetCmd(state),
	)
	return rootCmd
}

func (s *cliState) client() *ledgerclient.Client {
	return ledgerclient.New(s.apiURL, nil)
}

func (s *cliState) requireLedger() (string, error) {
	if err := config.Require("VOTING_ADDRESS", s.ledger); err != nil {
		return "", err
	}
	return s.ledger, nil
}

func (s *cliState) requireCaller() (string, error) {
	if err := config.Require("CALLER_ADDRESS", s.caller); err != nil {
		return "", err
	}
	return s.caller, nil
}

func (s *cliState) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
