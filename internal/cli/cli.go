package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellcluster/pkg/buildinfo"
	"github.com/matzehuels/cellcluster/pkg/cache"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
)

const (
	appName     = "cellcluster"
	keyPrefix   = appName + ":" // scopes baseline keys in a shared Redis
	historyFile = "runs.sqlite"
)

// Log levels accepted by New and SetLogLevel.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds the state shared by all commands.
type CLI struct {
	Logger  *log.Logger
	verbose bool
}

// New returns a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Measure spatial clustering between cell populations",
		Long: `Cellcluster measures whether one cell population clusters around another in a
layered tissue section. It compares a cumulative radial histogram of the observed
cells against a baseline from simulated layouts that keep every cell in its layer.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug records, one per simulation run")

	root.AddCommand(
		c.analyzeCommand(),
		c.configCommand(),
		c.historyCommand(),
		c.cacheCommand(),
		c.completionCommand(),
	)
	return root
}

// cacheOpts selects the baseline cache backend.
type cacheOpts struct {
	noCache  bool
	redisURL string
}

// newRunner returns a pipeline runner over the cache selected by co.
func (c *CLI) newRunner(ctx context.Context, co cacheOpts) (*pipeline.Runner, error) {
	bc, err := newCache(ctx, co)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if co.redisURL != "" {
		keyer = cache.NewScopedKeyer(nil, keyPrefix)
	}
	return pipeline.NewRunner(bc, keyer, c.Logger), nil
}

func newCache(ctx context.Context, co cacheOpts) (cache.Cache, error) {
	switch {
	case co.noCache:
		return cache.NewNullCache(), nil
	case co.redisURL != "":
		return cache.NewRedisCache(ctx, co.redisURL)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil // no home directory; run uncached
	}
	return cache.NewFileCache(dir)
}

// xdgDir returns $env/cellcluster, or ~/fallback/cellcluster when env is unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// cacheDir is ~/.cache/cellcluster unless XDG_CACHE_HOME is set.
func cacheDir() (string, error) { return xdgDir("XDG_CACHE_HOME", ".cache") }

// dataDir is ~/.local/share/cellcluster unless XDG_DATA_HOME is set.
func dataDir() (string, error) { return xdgDir("XDG_DATA_HOME", ".local", "share") }

// historyPath returns the run history database path, creating its directory.
func historyPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFile), nil
}

// parseFormats splits a comma-separated format list, dropping blanks.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
