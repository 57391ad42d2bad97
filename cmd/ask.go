package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func askCMD() *cobra.Command {
	var noSession bool
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if !noSession {
				a.chat.EstablishSession(ctx)
			}
			return ask(ctx, a, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
	cmd.Flags().BoolVar(&noSession, "no-session", false, "skip session creation")

	return cmd
}
