package main

import (
	"github.com/spf13/cobra"

	"github.com/strm123/strm123/internal/sharelink"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <message>",
		Short: "Show the share a message would trigger, without mirroring",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	link, err := sharelink.Parse(args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"domain":   link.Domain,
			"key":      link.Key,
			"password": link.Password,
		})
	}

	printTable(cmd.OutOrStdout(),
		[]string{"DOMAIN", "KEY", "PASSWORD"},
		[][]string{{link.Domain, link.Key, link.Password}},
	)

	return nil
}
