package commands

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemadiff/internal/cache"
	"github.com/conduit-lang/schemadiff/internal/cli/ui"
)

func newHistoryCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded change sets",
		Long: `Inspect the change sets recorded by 'schemadiff diff --record'.

Change set ids are time ordered; any unique prefix of an id is accepted.`,
	}

	cmd.AddCommand(newHistoryListCommand(global))
	cmd.AddCommand(newHistoryShowCommand(global))
	cmd.AddCommand(newHistoryClearCommand(global))

	return cmd
}

func newHistoryListCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded change sets, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			sets, err := s.ListChangeSets(ctx)
			if err != nil {
				return err
			}

			if len(sets) == 0 {
				fmt.Fprint(a.out, ui.Info("No change sets recorded yet", a.noColor))
				return nil
			}

			table := ui.NewTable(a.out, a.noColor, "ID", "Name", "Entries", "Destructive", "Created")
			for _, cs := range sets {
				table.AddRow(
					cs.ID,
					cs.Name,
					strconv.Itoa(cs.EntryCount),
					strconv.Itoa(cs.Destructive),
					cs.CreatedAt.Local().Format(timeLayout),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newHistoryShowCommand(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a recorded change set",
		Example: `  schemadiff history show 01J2K8
  schemadiff history show 01J2K8QF0R --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			sets, err := s.ListChangeSets(ctx)
			if err != nil {
				return err
			}
			ids := make([]string, len(sets))
			for i, cs := range sets {
				ids[i] = cs.ID
			}

			id, err := a.resolveID("change set", args[0], ids)
			if err != nil {
				return err
			}
			cs, err := s.GetChangeSet(ctx, id)
			if err != nil {
				return err
			}

			outFormat := a.resolveFormat(format)
			if outFormat == formatText {
				ui.Header(a.out, cs.Name, a.noColor)
				kv := ui.NewKeyValueTable(a.out, a.noColor)
				kv.AddRow("ID", cs.ID)
				kv.AddRow("From", cs.LeftID)
				kv.AddRow("To", cs.RightID)
				kv.AddRow("Entries", strconv.Itoa(cs.EntryCount))
				kv.AddRow("Destructive", strconv.Itoa(cs.Destructive))
				kv.AddRow("Created", cs.CreatedAt.Local().Format(timeLayout))
				kv.Render()
				fmt.Fprintln(a.out)
			}
			return a.writeChangeLog(a.out, outFormat, cs.Entries, nil)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, yaml, json or msgpack (default: output.format)")

	return cmd
}

func newHistoryClearCommand(global *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded change sets and snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer a.close()

			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete all history in %s?", a.cfg.Store.DSN),
					Default: false,
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("confirmation failed (use --yes to skip): %w", err)
				}
				if !confirmed {
					fmt.Fprint(a.out, ui.Info("History kept", a.noColor))
					return nil
				}
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if err := s.Clear(ctx); err != nil {
				return err
			}

			// cached change logs may reference the removed snapshots
			changeLogs := cache.NewChangeLogCache(a.openCache(ctx), 0, a.logger.Named("cache"))
			if err := changeLogs.Invalidate(ctx); err != nil {
				fmt.Fprint(a.errOut, ui.Warning(fmt.Sprintf("failed to clear change log cache: %v", err), nil, a.noColor))
			}

			ui.WriteSuccess(a.out, "History cleared", a.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
