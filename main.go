package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/takaryo1010/termlink/internal/config"
	"github.com/takaryo1010/termlink/internal/linker"
	"github.com/takaryo1010/termlink/internal/ports"
	"github.com/takaryo1010/termlink/internal/store"
	"github.com/takaryo1010/termlink/internal/termindex"
	"github.com/takaryo1010/termlink/internal/whitelist"
)

// app holds the command-line configuration shared by every subcommand.
type app struct {
	configPath string
	dictPath   string
	dbPath     string
	articles   string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "termlink",
		Short:         "Link whitelisted terms and headings in documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath, "Config file path")
	flags.StringVarP(&a.dictPath, "dict", "d", "", "Dictionary file path (overrides config)")
	flags.StringVar(&a.dbPath, "db", "", "bbolt database path (overrides config)")
	flags.StringVar(&a.articles, "articles", "", "Per-article overrides and heading titles YAML (overrides config)")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		newLinkCmd(a),
		newTreeCmd(a),
		newCheckCmd(a),
		newSortCmd(a),
		newImportCmd(a),
		newOverrideCmd(a),
		newHeadingCmd(a),
		newWatchCmd(a),
		newInitCmd(a),
		newUpdateCmd(a),
	)
	return root
}

// setup loads the config file and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dict") {
		cfg.Dictionary = a.dictPath
	}
	if flags.Changed("db") {
		cfg.Database = a.dbPath
	}
	if flags.Changed("articles") {
		cfg.Articles = a.articles
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// openStore opens the configured database. It fails when none is set.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.Database == "" {
		return nil, fmt.Errorf("no database configured (use --db or set database in %s)", a.configPath)
	}
	return store.Open(a.cfg.Database, a.logger)
}

// sources picks where the whitelist and article data come from: the
// database when one is configured, otherwise the YAML files. The returned
// closer must be called when done.
type sources struct {
	whitelist ports.WhitelistSource
	overrides ports.OverrideSource
	headings  ports.HeadingLinkSource
	st        *store.Store
}

func (s sources) Close() error {
	if s.st != nil {
		return s.st.Close()
	}
	return nil
}

func (a *app) sources() (sources, error) {
	if a.cfg.Database != "" {
		st, err := a.openStore()
		if err != nil {
			return sources{}, err
		}
		return sources{whitelist: st, overrides: st, headings: st, st: st}, nil
	}
	af := whitelist.ArticleFile{Path: a.cfg.Articles}
	return sources{
		whitelist: whitelist.File{Path: a.cfg.Dictionary},
		overrides: af,
		headings:  af,
	}, nil
}

// newLinker builds a linker and its cache over src.
func (a *app) newLinker(src sources) (*linker.Linker, *termindex.Cache) {
	cache := termindex.NewCache(src.whitelist,
		termindex.WithTTL(a.cfg.CacheTTL),
		termindex.WithLogger(a.logger),
	)
	if src.st != nil {
		src.st.OnChange(cache.Invalidate)
	}
	l := linker.New(cache,
		linker.WithOverrides(src.overrides),
		linker.WithHeadingLinks(src.headings),
		linker.WithPolicy(a.cfg.Policy()),
		linker.WithLogger(a.logger),
	)
	return l, cache
}
