package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strm123/strm123/internal/config"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to the account and cache the token",
		Long: `Sign in with the configured account credentials.

When session.token_file is set, the token is written there so the gateway
can start without signing in again.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

// loginResult is the --json output of login.
type loginResult struct {
	Account   string `json:"account"`
	Expiry    string `json:"expiry"`
	TokenFile string `json:"token_file,omitempty"`
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := config.ValidateCredentials(resolvedCfg); err != nil {
		return err
	}

	logger := buildLogger(resolvedCfg, os.Stderr)

	client, err := newPanClient(resolvedCfg, logger)
	if err != nil {
		return err
	}

	sess := newSession(resolvedCfg, client, logger)
	if err := sess.Login(cmd.Context()); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), loginResult{
			Account:   resolvedCfg.Account.Passport,
			Expiry:    sess.Expiry().Format(time.RFC3339),
			TokenFile: resolvedCfg.Session.TokenFile,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (token valid until %s)\n",
		resolvedCfg.Account.Passport, formatTime(sess.Expiry()))

	if resolvedCfg.Session.TokenFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Token cached at %s\n", resolvedCfg.Session.TokenFile)
	} else {
		statusf(flagQuiet, "Set session.token_file (e.g. %q) to reuse the token across restarts.\n",
			config.DefaultTokenPath())
	}

	return nil
}
