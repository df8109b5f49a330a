// Package compare ties the diff engine to snapshot loading, the change-log cache and the
// history store. It is what the CLI drives.
package compare

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/schemadiff/internal/cache"
	"github.com/conduit-lang/schemadiff/internal/changelog"
	"github.com/conduit-lang/schemadiff/internal/diff"
	"github.com/conduit-lang/schemadiff/internal/model"
	"github.com/conduit-lang/schemadiff/internal/modeldoc"
	"github.com/conduit-lang/schemadiff/internal/store"
)

// ErrNoStore is returned when recording is requested without a history store
var ErrNoStore = errors.New("no history store configured")

// Comparer computes change logs between model snapshots
type Comparer struct {
	differ *diff.Differ
	cache  *cache.ChangeLogCache
	store  *store.Store
	logger *zap.Logger
}

// Option configures a Comparer
type Option func(*Comparer)

// WithDiffer sets the diff engine
func WithDiffer(d *diff.Differ) Option {
	return func(c *Comparer) {
		if d != nil {
			c.differ = d
		}
	}
}

// WithCache enables change-log caching. Entries are looked up by snapshot ids alone, so
// a comparer whose differ compares annotations differently from others on the same
// backend needs its own ChangeLogCache.Namespace.
func WithCache(cl *cache.ChangeLogCache) Option {
	return func(c *Comparer) {
		c.cache = cl
	}
}

// WithStore enables recording into the history store
func WithStore(s *store.Store) Option {
	return func(c *Comparer) {
		c.store = s
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Comparer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a comparer. Without options it only diffs.
func New(opts ...Option) *Comparer {
	c := &Comparer{
		differ: diff.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Options controls a single comparison
type Options struct {
	// Record saves both snapshots and the change set into the history store
	Record bool
	// LeftName and RightName label recorded snapshots
	LeftName  string
	RightName string
}

// Result is the outcome of a comparison
type Result struct {
	LeftID    string
	RightID   string
	Entries   []changelog.Entry
	Summary   diff.Summary
	Cached    bool
	ChangeSet *store.ChangeSet
}

// Empty reports whether the snapshots are equal
func (r *Result) Empty() bool {
	return len(r.Entries) == 0
}

// LoadPair reads and validates two model files concurrently
func LoadPair(ctx context.Context, leftPath, rightPath string) (*model.Model, *model.Model, error) {
	var left, right *model.Model

	g, gctx := errgroup.WithContext(ctx)
	load := func(path string, dst **model.Model) func() error {
		return func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := modeldoc.LoadModel(path)
			if err != nil {
				return err
			}
			*dst = m
			return nil
		}
	}
	g.Go(load(leftPath, &left))
	g.Go(load(rightPath, &right))

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// ComparePaths loads two model files and compares them. Recorded snapshots are named
// after the files unless names are given.
func (c *Comparer) ComparePaths(ctx context.Context, leftPath, rightPath string, opts Options) (*Result, error) {
	left, right, err := LoadPair(ctx, leftPath, rightPath)
	if err != nil {
		return nil, err
	}
	if opts.LeftName == "" {
		opts.LeftName = baseName(leftPath)
	}
	if opts.RightName == "" {
		opts.RightName = baseName(rightPath)
	}
	return c.Compare(ctx, left, right, opts)
}

// Compare computes the change log from left to right, consulting the cache first
func (c *Comparer) Compare(ctx context.Context, left, right *model.Model, opts Options) (*Result, error) {
	if opts.Record && c.store == nil {
		return nil, ErrNoStore
	}

	leftID, err := store.SnapshotID(left)
	if err != nil {
		return nil, err
	}
	rightID, err := store.SnapshotID(right)
	if err != nil {
		return nil, err
	}

	res := &Result{LeftID: leftID, RightID: rightID}

	if entries, ok := c.cached(ctx, leftID, rightID); ok {
		elems, err := changelog.Elements(entries)
		if err != nil {
			return nil, fmt.Errorf("cached change log %s..%s: %w", leftID, rightID, err)
		}
		res.Entries, res.Summary, res.Cached = entries, diff.Summarize(elems), true
	} else {
		elems := c.differ.Compute(left, right)
		res.Entries, res.Summary = changelog.FromElements(elems), diff.Summarize(elems)
		c.remember(ctx, leftID, rightID, res.Entries)
	}

	c.logger.Debug("compared snapshots",
		zap.String("left", leftID),
		zap.String("right", rightID),
		zap.Int("entries", len(res.Entries)),
		zap.Bool("cached", res.Cached))

	if opts.Record {
		if _, err := c.store.SaveSnapshot(ctx, opts.LeftName, left); err != nil {
			return nil, err
		}
		if _, err := c.store.SaveSnapshot(ctx, opts.RightName, right); err != nil {
			return nil, err
		}
		if res.ChangeSet, err = c.store.RecordChangeSet(ctx, leftID, rightID, res.Entries); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// CompareSnapshots compares two stored snapshots
func (c *Comparer) CompareSnapshots(ctx context.Context, leftID, rightID string) (*Result, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}

	models := make([]*model.Model, 2)
	for i, id := range []string{leftID, rightID} {
		snap, err := c.store.GetSnapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		if models[i], err = snap.Model(); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", id, err)
		}
	}

	return c.Compare(ctx, models[0], models[1], Options{})
}

// cached looks the pair up in the cache. Backend failures degrade to a recompute.
func (c *Comparer) cached(ctx context.Context, leftID, rightID string) ([]changelog.Entry, bool) {
	if c.cache == nil {
		return nil, false
	}
	entries, err := c.cache.Get(ctx, leftID, rightID)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			c.logger.Warn("change log cache unavailable", zap.Error(err))
		}
		return nil, false
	}
	return entries, true
}

func (c *Comparer) remember(ctx context.Context, leftID, rightID string, entries []changelog.Entry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, leftID, rightID, entries); err != nil {
		c.logger.Warn("failed to cache change log", zap.Error(err))
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
