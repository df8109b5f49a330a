package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/cache"
	"github.com/conduit-lang/schemadiff/internal/cli/config"
	"github.com/conduit-lang/schemadiff/internal/cli/ui"
	"github.com/conduit-lang/schemadiff/internal/compare"
	"github.com/conduit-lang/schemadiff/internal/diff"
	"github.com/conduit-lang/schemadiff/internal/logging"
	"github.com/conduit-lang/schemadiff/internal/store"
)

// reportedError marks an error whose formatted message was already written to stderr
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// app holds what a single command invocation needs. The store and cache are opened on
// first use and released by close.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
	out     io.Writer
	errOut  io.Writer

	store *store.Store
	cache cache.Cache
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	errOut := cmd.ErrOrStderr()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), opts.noColor))
		return nil, reportedError{err}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		noColor: opts.noColor || cfg.Output.NoColor,
		out:     cmd.OutOrStdout(),
		errOut:  errOut,
	}, nil
}

// openStore opens the history database
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN, store.WithLogger(a.logger.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	a.store = s
	return s, nil
}

// openCache connects the configured cache backend. An unreachable backend is logged and
// comparisons proceed uncached.
func (a *app) openCache(ctx context.Context) cache.Cache {
	if a.cache != nil {
		return a.cache
	}

	c, err := cache.New(ctx, a.cfg.Cache.Backend, cache.RedisConfig{
		Addr:     a.cfg.Cache.Addr,
		Password: a.cfg.Cache.Password,
		DB:       a.cfg.Cache.DB,
		CacheConfig: cache.CacheConfig{
			DefaultTTL: a.cfg.Cache.TTL,
			Prefix:     a.cfg.Cache.Prefix,
		},
	})
	if err != nil {
		a.logger.Warn("change log cache disabled", zap.String("backend", a.cfg.Cache.Backend), zap.Error(err))
		c = cache.NopCache{}
	}
	a.cache = c
	return c
}

// cacheNamespace keeps change logs computed under different ignore_keys settings apart
func (a *app) cacheNamespace() string {
	if len(a.cfg.Diff.IgnoreKeys) == 0 {
		return ""
	}
	data, _ := json.Marshal(a.cfg.Diff.IgnoreKeys)
	return uuid.NewSHA1(uuid.Nil, data).String()[:8]
}

// differ builds the diff engine with the configured annotation comparators
func (a *app) differ() (*diff.Differ, error) {
	eq := diff.NewAnnotationEquality()

	kinds := make([]string, 0, len(a.cfg.Diff.IgnoreKeys))
	for kind := range a.cfg.Diff.IgnoreKeys {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if err := eq.Register(kind, diff.IgnoreKeys(a.cfg.Diff.IgnoreKeys[kind]...)); err != nil {
			return nil, fmt.Errorf("diff.ignore_keys: %w", err)
		}
	}

	return diff.New(
		diff.WithLogger(a.logger.Named("diff")),
		diff.WithAnnotationEquality(eq),
	), nil
}

// comparer wires the engine, cache and, when withStore is set, the history store
func (a *app) comparer(ctx context.Context, withStore bool) (*compare.Comparer, error) {
	d, err := a.differ()
	if err != nil {
		return nil, err
	}

	opts := []compare.Option{
		compare.WithDiffer(d),
		compare.WithCache(cache.NewChangeLogCache(a.openCache(ctx), a.cfg.Cache.TTL, a.logger.Named("cache")).
			Namespace(a.cacheNamespace())),
		compare.WithLogger(a.logger.Named("compare")),
	}
	if withStore {
		s, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, compare.WithStore(s))
	}
	return compare.New(opts...), nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Debug("failed to close cache", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Debug("failed to close history store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// resolveID expands an id prefix against the recorded ids. Unknown ids are reported with
// the closest recorded ones as suggestions.
func (a *app) resolveID(what, prefix string, ids []string) (string, error) {
	id, err := ui.ResolvePrefix(prefix, ids)
	if err == nil {
		return id, nil
	}
	for _, candidate := range ids {
		if strings.HasPrefix(candidate, prefix) {
			// ambiguous
			return "", err
		}
	}
	return "", a.notFound(what, prefix, suggestIDs(prefix, ids))
}

func (a *app) notFound(what, id string, suggestions []string) error {
	fmt.Fprint(a.errOut, ui.NotFoundError(what, id, suggestions, a.noColor))
	return reportedError{fmt.Errorf("%s %s: %w", what, id, store.ErrNotFound)}
}

// suggestIDs compares the prefix against equally long id heads
func suggestIDs(prefix string, ids []string) []string {
	heads := make([]string, 0, len(ids))
	full := make(map[string]string, len(ids))
	for _, id := range ids {
		head := id
		if len(head) > len(prefix) {
			head = head[:len(prefix)]
		}
		if _, seen := full[head]; !seen {
			heads = append(heads, head)
			full[head] = id
		}
	}

	matches := ui.FindSimilar(prefix, heads, &ui.FuzzyMatchOptions{MaxDistance: 2, CaseSensitive: true})
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = full[m]
	}
	return out
}
