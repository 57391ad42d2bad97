package main

import (
	"fmt"

	"assistant-client/internal/render"

	"github.com/spf13/cobra"
)

func statusCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the assistant API's subsystem status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			report := a.checker.Refresh(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), render.TerminalStatus(report))
			if !report.Reachable {
				return fmt.Errorf("assistant API at %s is unreachable", a.client.BaseURL())
			}
			return nil
		},
	}
}
