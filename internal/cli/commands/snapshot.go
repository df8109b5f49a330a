package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemadiff/internal/cli/ui"
	"github.com/conduit-lang/schemadiff/internal/modeldoc"
	"github.com/conduit-lang/schemadiff/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

func newSnapshotCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored model snapshots",
		Long: `Store model files in the history database and inspect stored snapshots.

Snapshots are identified by their content: saving the same model twice keeps one record.`,
	}

	cmd.AddCommand(newSnapshotSaveCommand(global))
	cmd.AddCommand(newSnapshotListCommand(global))
	cmd.AddCommand(newSnapshotShowCommand(global))

	return cmd
}

func newSnapshotSaveCommand(global *globalOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <file|dir>",
		Short: "Store model files as snapshots",
		Long: `Store a model file as a snapshot and print its id.

Given a directory, every model file below it is stored, each named after its file.`,
		Example: `  schemadiff snapshot save model.yaml --name release-1.4
  schemadiff snapshot save models/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer a.close()

			files := []string{args[0]}
			if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
				if name != "" {
					return fmt.Errorf("--name cannot be used when saving a directory")
				}
				if files, err = modeldoc.FindFiles(args[0]); err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprint(a.errOut, ui.Warning("No model files found in "+args[0], nil, a.noColor))
					return nil
				}
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			for _, file := range files {
				m, err := modeldoc.LoadModel(file)
				if err != nil {
					fmt.Fprint(a.errOut, ui.ModelError(err.Error(), a.noColor))
					return reportedError{err}
				}

				snapName := name
				if snapName == "" {
					snapName = baseName(file)
				}
				snap, err := s.SaveSnapshot(ctx, snapName, m)
				if err != nil {
					return err
				}

				fmt.Fprintln(a.out, snap.ID)
				ui.WriteSuccess(a.errOut, fmt.Sprintf("Snapshot %s saved (%d types)", snap.Name, snap.TypeCount), a.noColor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Snapshot name (default: file name without extension)")

	return cmd
}

func newSnapshotListCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
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
			snaps, err := s.ListSnapshots(ctx)
			if err != nil {
				return err
			}

			if len(snaps) == 0 {
				fmt.Fprint(a.out, ui.Info("No snapshots stored yet", a.noColor))
				return nil
			}

			table := ui.NewTable(a.out, a.noColor, "ID", "Name", "Types", "Created")
			for _, snap := range snaps {
				table.AddRow(snap.ID, snap.Name, strconv.Itoa(snap.TypeCount), snap.CreatedAt.Local().Format(timeLayout))
			}
			table.Render()
			return nil
		},
	}
}

func newSnapshotShowCommand(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored snapshot as a model document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.findSnapshot(ctx, args[0])
			if err != nil {
				return err
			}

			switch f := modeldoc.Format(format); f {
			case modeldoc.FormatYAML, modeldoc.FormatJSON, modeldoc.FormatTOML:
				return modeldoc.Encode(a.out, f, snap.Document)
			default:
				return fmt.Errorf("unsupported snapshot format: %s (expected yaml, json or toml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, json or toml")

	return cmd
}

// findSnapshot loads a snapshot by id or unique id prefix
func (a *app) findSnapshot(ctx context.Context, prefix string) (*store.Snapshot, error) {
	s, ids, err := a.snapshotIDs(ctx)
	if err != nil {
		return nil, err
	}
	id, err := a.resolveID("snapshot", prefix, ids)
	if err != nil {
		return nil, err
	}
	return s.GetSnapshot(ctx, id)
}

func (a *app) snapshotIDs(ctx context.Context) (*store.Store, []string, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(snaps))
	for i, snap := range snaps {
		ids[i] = snap.ID
	}
	return s, ids, nil
}
