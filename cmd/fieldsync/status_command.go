package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, session, and queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				client, err := ctx.newClient()
				if err != nil {
					return err
				}
				probe, err := ctx.newProbe()
				if err != nil {
					return err
				}

				status := probe.Status(cmd.Context())
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				for _, line := range statusHeader("FieldSync Status", shouldColorize(cmd.OutOrStdout())) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintf(out, "Remote: %s\n", cfg.API.BaseURL)
				fmt.Fprintf(out, "Online: %s\n", yesNo(status.Online()))
				fmt.Fprintf(out, "Authenticated: %s\n", yesNo(client.Authenticated(cmd.Context())))
				fmt.Fprintf(out, "Pending operations: %d\n", stats[queue.StatusPending])
				fmt.Fprintf(out, "Failed operations: %d\n", stats[queue.StatusFailed])
				return nil
			})
		},
	}
}

func statusHeader(title string, colorize bool) []string {
	rule := strings.Repeat("-", len(title))
	if colorize {
		title = ansiBlue + title + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{title, rule}
}
