package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/varsilias/researchpaper/internal/logging"
	"github.com/varsilias/researchpaper/internal/session"
)

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage saved chats",
	}
	cmd.AddCommand(newHistoryListCommand(opts))
	cmd.AddCommand(newHistoryShowCommand(opts))
	cmd.AddCommand(newHistoryDeleteCommand(opts))
	cmd.AddCommand(newHistoryClearCommand(opts))
	return cmd
}

// withHistory opens the configured store for the duration of fn.
func withHistory(cmd *cobra.Command, opts *rootOptions, fn func(*session.Store) error) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)
	store, backend, err := openHistory(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(store)
}

func newHistoryListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved chats, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store *session.Store) error {
				chats := store.History()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), chats)
				}
				if len(chats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved chats.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSAVED\tMESSAGES\tTITLE\tTAGS")
				for _, c := range chats {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.ID, c.Timestamp, len(c.Messages), c.Title, strings.Join(c.Tags, ", "))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON records")
	return cmd
}

func newHistoryShowCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store *session.Store) error {
				c, ok := store.GetChatByID(args[0])
				if !ok {
					return fmt.Errorf("%s: %w", args[0], session.ErrNotFound)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, c)
				}
				fmt.Fprintf(out, "%s\n%s\nTags: %s\n\n", c.Title, c.Timestamp, strings.Join(c.Tags, ", "))
				for _, m := range c.Messages {
					fmt.Fprintf(out, "[%s]\n%s\n\n", m.Role, m.Content)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON record")
	return cmd
}

func newHistoryDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store *session.Store) error {
				deleted, err := store.DeleteChat(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("%s: %w", args[0], session.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, opts, func(store *session.Store) error {
				n := store.Len()
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history to clear.")
					return nil
				}
				if err := store.ClearAllHistory(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d chats\n", n)
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
