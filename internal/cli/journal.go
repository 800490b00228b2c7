package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoobzio/faultline/store"
)

// NewJournalCmd builds the journal command group.
func NewJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record and browse errors in the local journal",
	}

	cmd.AddCommand(newJournalRecordCmd())
	cmd.AddCommand(newJournalListCmd())
	cmd.AddCommand(newJournalShowCmd())
	cmd.AddCommand(newJournalCountCmd())
	cmd.AddCommand(newJournalDeleteCmd())

	return cmd
}

func journalFor(cmd *cobra.Command) (*CLIContext, *store.DB, error) {
	cliCtx, err := mustContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := cliCtx.Journal()
	if err != nil {
		return nil, nil, err
	}
	return cliCtx, db, nil
}

func newJournalRecordCmd() *cobra.Command {
	var codecName string

	cmd := &cobra.Command{
		Use:   "record [file]",
		Short: "Decode a serialized error and add it to the journal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, db, err := journalFor(cmd)
			if err != nil {
				return err
			}
			if codecName == "" {
				codecName = cliCtx.Config.Codec
			}

			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			proc, err := cliCtx.Processor(codecName)
			if err != nil {
				return err
			}
			inst, err := proc.Receive(cmd.Context(), data)
			if err != nil {
				return err
			}
			if inst == nil {
				return fmt.Errorf("journal record: payload is null")
			}

			entry, err := db.Record(cmd.Context(), inst)
			if err != nil {
				return err
			}
			cliCtx.Log().Info().
				Str("id", entry.ID).
				Str("kind", entry.Kind).
				Str("fingerprint", entry.Fingerprint).
				Msg("recorded error")

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&codecName, "codec", "", "payload codec (default from config)")
	return cmd
}

func newJournalListCmd() *cobra.Command {
	var filter store.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded errors, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := journalFor(cmd)
			if err != nil {
				return err
			}
			entries, err := db.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tKIND\tMESSAGE\tFINGERPRINT\tRECORDED")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Kind, truncate(e.Message, 48), shortFingerprint(e.Fingerprint),
					e.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filter.Kind, "kind", "", "only errors of this kind")
	cmd.Flags().StringVar(&filter.Fingerprint, "fingerprint", "", "only errors with this fingerprint")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	return cmd
}

func newJournalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recorded error in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := journalFor(cmd)
			if err != nil {
				return err
			}
			entry, err := db.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			inst, err := entry.Err(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "id: %s\n", entry.ID)
			_, _ = fmt.Fprintf(out, "recorded: %s\n", entry.CreatedAt.Local().Format(time.RFC3339))
			_, _ = fmt.Fprintf(out, "fingerprint: %s\n", entry.Fingerprint)
			_, _ = fmt.Fprintf(out, "%+v\n", inst)
			return nil
		},
	}
}

func newJournalCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <fingerprint>",
		Short: "Count how often an error was recorded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := journalFor(cmd)
			if err != nil {
				return err
			}
			n, err := db.Count(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(n))
			return nil
		},
	}
}

func newJournalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a recorded error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, db, err := journalFor(cmd)
			if err != nil {
				return err
			}
			if err := db.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cliCtx.Log().Info().Str("id", args[0]).Msg("deleted error")
			return nil
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
