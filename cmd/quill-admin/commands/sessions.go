// ABOUTME: quill-admin sessions commands for the SQLite session store
// ABOUTME: Lists resident wizard sessions and clears one user's session

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/session"
)

func sessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect wizard sessions persisted by the bot",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupSessions()
		},
	}
	cmd.PersistentFlags().StringVar(&a.sessionsDB, "db", "", "SQLite session database (overrides config)")
	cmd.AddCommand(sessionsListCmd(a), sessionsClearCmd(a))
	return cmd
}

func sessionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users with an unfinished article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openSessions()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			if a.output == "yaml" {
				return writeYAML(cmd.OutOrStdout(), list)
			}

			out := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan)
			fmt.Fprintln(out)
			cyan.Fprintln(out, "  Wizard Sessions")
			cyan.Fprintln(out, "  ---------------")
			if len(list) == 0 {
				fmt.Fprintln(out, "  (no active sessions)")
				fmt.Fprintln(out)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  USER\tSTEP\tTITLE\tUPDATED")
			fmt.Fprintln(w, "  ----\t----\t-----\t-------")
			for _, s := range list {
				title := "-"
				if s.Draft.Title != nil {
					title = truncate(*s.Draft.Title, 32)
				}
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", s.UserID, s.State, title, s.UpdatedAt.Local().Format("Jan 02 15:04"))
			}
			w.Flush()
			fmt.Fprintln(out)
			return nil
		},
	}
}

func sessionsClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <user>",
		Short: "Discard a user's unfinished article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openSessions()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Cleared session for %s\n", args[0])
			return nil
		},
	}
}

func (a *app) openSessions() (session.Store, error) {
	if a.cfg.Sessions.Backend != config.BackendSQLite {
		return nil, fmt.Errorf("sessions.backend is %q: only sqlite sessions are visible outside the bot", a.cfg.Sessions.Backend)
	}
	store, err := session.NewSQLiteStore(a.cfg.Sessions.Path)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	return store, nil
}
