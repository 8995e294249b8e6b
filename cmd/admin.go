package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/objnode/internal/domain"
	"github.com/spf13/cobra"
)

func newGCCmd(app *app) *cobra.Command {
	var nodeURL string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Run a sweep on a node and report retained and evicted objects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.adminClient(nodeURL).Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			for _, id := range report.Retained {
				if _, err := fmt.Fprintf(out, "retained %s\n", id); err != nil {
					return err
				}
			}
			for _, id := range report.Evicted {
				if _, err := fmt.Fprintf(out, "evicted  %s\n", id); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "retained: %d, evicted: %d, sessions: %d, quarantined: %d\n",
				len(report.Retained), len(report.Evicted), report.Stats.Sessions, report.Stats.Quarantined)
			return err
		},
	}

	cmd.Flags().StringVar(&nodeURL, "node", "", "Node API URL (defaults to this node)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newStatsCmd(app *app) *cobra.Command {
	var nodeURL string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reference tracking counters of a node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := app.adminClient(nodeURL).Stats(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "objects: %d\nsessions: %d\nquarantined: %d\naliases: %d\n",
				stats.Objects, stats.Sessions, stats.Quarantined, stats.Aliases)
			return err
		},
	}

	cmd.Flags().StringVar(&nodeURL, "node", "", "Node API URL (defaults to this node)")

	return cmd
}

func newSessionCmd(app *app) *cobra.Command {
	var nodeURL string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Extend or close client sessions on a node",
	}
	cmd.PersistentFlags().StringVar(&nodeURL, "node", "", "Node API URL (defaults to this node)")

	cmd.AddCommand(&cobra.Command{
		Use:   "touch <session>",
		Short: "Extend a session's lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.adminClient(nodeURL).TouchSession(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}

			if resp.Never {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s never expires\n", resp.Session)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s expires %s\n", resp.Session, resp.ExpiresAt)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "close <session>",
		Short: "Expire a session now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.adminClient(nodeURL).CloseSession(cmd.Context(), domain.SessionID(args[0])); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "session %s closed\n", args[0])
			return err
		},
	})

	return cmd
}
