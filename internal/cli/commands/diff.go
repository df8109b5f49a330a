package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemadiff/internal/cli/ui"
	"github.com/conduit-lang/schemadiff/internal/compare"
	"github.com/conduit-lang/schemadiff/internal/diff"
)

// ErrDestructive is returned by diff --fail-on-destructive when the change log removes something
var ErrDestructive = errors.New("change log contains destructive operations")

type diffOptions struct {
	format            string
	record            bool
	summary           bool
	snapshots         bool
	failOnDestructive bool
}

func newDiffCommand(global *globalOptions) *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compute the change log between two model snapshots",
		Long: `Compute the ordered list of operations that turns the left model into the right one.

Both arguments are model files (.yaml, .yml, .json or .toml) unless --snapshots is given,
in which case they are ids of snapshots stored in the history database.`,
		Example: `  # Print the change log between two model files
  schemadiff diff model-v1.yaml model-v2.yaml

  # Emit YAML and record both snapshots and the change set
  schemadiff diff model-v1.yaml model-v2.yaml --format yaml --record

  # Compare two recorded snapshots
  schemadiff diff --snapshots 6f1c2a90 0b7e44d1

  # Fail in CI when something would be removed
  schemadiff diff main.yaml branch.yaml --fail-on-destructive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, global, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, yaml, json or msgpack (default: output.format)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record both snapshots and the change set in the history database")
	cmd.Flags().BoolVarP(&opts.summary, "summary", "s", false, "Print per-operation counts after a text change log")
	cmd.Flags().BoolVar(&opts.snapshots, "snapshots", false, "Treat arguments as stored snapshot ids (prefixes allowed)")
	cmd.Flags().BoolVar(&opts.failOnDestructive, "fail-on-destructive", false, "Exit with an error when the change log removes anything")

	return cmd
}

func runDiff(cmd *cobra.Command, global *globalOptions, opts *diffOptions, left, right string) error {
	ctx := commandContext(cmd)

	a, err := newApp(cmd, global)
	if err != nil {
		return err
	}
	defer a.close()

	c, err := a.comparer(ctx, opts.record || opts.snapshots)
	if err != nil {
		return err
	}

	var res *compare.Result
	if opts.snapshots {
		res, err = a.compareStored(ctx, c, left, right)
	} else {
		l, r, loadErr := compare.LoadPair(ctx, left, right)
		if loadErr != nil {
			fmt.Fprint(a.errOut, ui.ModelError(loadErr.Error(), a.noColor))
			return reportedError{loadErr}
		}
		res, err = c.Compare(ctx, l, r, compare.Options{
			Record:    opts.record,
			LeftName:  baseName(left),
			RightName: baseName(right),
		})
	}
	if err != nil {
		return err
	}

	var summary *diff.Summary
	if opts.summary {
		summary = &res.Summary
	}
	if err := a.writeChangeLog(a.out, a.resolveFormat(opts.format), res.Entries, summary); err != nil {
		return err
	}

	if res.ChangeSet != nil {
		ui.WriteSuccess(a.errOut, fmt.Sprintf("Recorded change set %s (%s)", res.ChangeSet.ID, res.ChangeSet.Name), a.noColor)
	}

	if opts.failOnDestructive && res.Summary.Destructive > 0 {
		return fmt.Errorf("%w: %d of %d entries", ErrDestructive, res.Summary.Destructive, res.Summary.Total)
	}
	return nil
}

// compareStored resolves both snapshot id prefixes and compares the stored models
func (a *app) compareStored(ctx context.Context, c *compare.Comparer, left, right string) (*compare.Result, error) {
	_, ids, err := a.snapshotIDs(ctx)
	if err != nil {
		return nil, err
	}

	leftID, err := a.resolveID("snapshot", left, ids)
	if err != nil {
		return nil, err
	}
	rightID, err := a.resolveID("snapshot", right, ids)
	if err != nil {
		return nil, err
	}
	return c.CompareSnapshots(ctx, leftID, rightID)
}
