// Package config holds millr's runtime settings and parses them from the
// command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kk-code-lab/millr/internal/pool"
)

const (
	appDirName       = "millr"
	bookmarksDBName  = "bookmarks.db"
	defaultCapacity  = 256
	defaultDepth     = 1
	defaultLogLevel  = "info"
	minCacheCapacity = 8
)

// Config is the resolved set of options.
type Config struct {
	StartPath          string
	ShowHidden         bool
	WorkerCount        int
	CacheCapacity      int
	AncestorDepthLimit int // 0 shows every ancestor up to the root
	LogFile            string
	LogLevel           string
	BookmarksPath      string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StartPath:          ".",
		ShowHidden:         false,
		WorkerCount:        runtime.NumCPU(),
		CacheCapacity:      defaultCapacity,
		AncestorDepthLimit: defaultDepth,
		LogLevel:           defaultLogLevel,
		BookmarksPath:      DefaultBookmarksPath(),
	}
}

// DefaultBookmarksPath places the bookmark database in the user config
// directory, falling back to the working directory.
func DefaultBookmarksPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "."+appDirName, bookmarksDBName)
	}
	return filepath.Join(base, appDirName, bookmarksDBName)
}

// Parse applies command-line arguments (without the program name) on top of
// base. Usage goes to out when -h/--help is given, in which case an error
// satisfying IsHelp is returned.
func Parse(base Config, args []string, out io.Writer) (Config, error) {
	cfg := base
	fs := flag.NewFlagSet(appDirName, flag.ContinueOnError)
	fs.SetOutput(out)

	fs.BoolVar(&cfg.ShowHidden, "a", cfg.ShowHidden, "Show hidden files")
	fs.BoolVar(&cfg.ShowHidden, "all", cfg.ShowHidden, "Show hidden files")
	fs.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Number of background directory loaders")
	fs.IntVar(&cfg.CacheCapacity, "cache", cfg.CacheCapacity, "Maximum number of cached directory listings")
	fs.IntVar(&cfg.AncestorDepthLimit, "depth", cfg.AncestorDepthLimit, "Ancestor columns to show (0 = up to the root)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to `path`")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.BookmarksPath, "bookmarks", cfg.BookmarksPath, "Bookmark database `path`")
	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return base, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		cfg.StartPath = fs.Arg(0)
	default:
		return base, fmt.Errorf("expected at most one path, got %d", fs.NArg())
	}
	return cfg, nil
}

// Validate clamps out-of-range values and describes each adjustment.
func (c *Config) Validate() []string {
	var warnings []string

	switch {
	case c.WorkerCount < 1:
		warnings = append(warnings, fmt.Sprintf("workers=%d is below 1; loading directories one at a time", c.WorkerCount))
		c.WorkerCount = 1
	case c.WorkerCount > pool.MaxWorkers:
		warnings = append(warnings, fmt.Sprintf("workers=%d exceeds %d; capped", c.WorkerCount, pool.MaxWorkers))
		c.WorkerCount = pool.MaxWorkers
	}

	if c.CacheCapacity < minCacheCapacity {
		warnings = append(warnings, fmt.Sprintf("cache=%d is too small; using %d", c.CacheCapacity, minCacheCapacity))
		c.CacheCapacity = minCacheCapacity
	}

	if c.AncestorDepthLimit < 0 {
		warnings = append(warnings, fmt.Sprintf("depth=%d is negative; showing every ancestor", c.AncestorDepthLimit))
		c.AncestorDepthLimit = 0
	}

	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch level {
	case "debug", "info", "warn", "error":
		c.LogLevel = level
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level %q; using %s", c.LogLevel, defaultLogLevel))
		c.LogLevel = defaultLogLevel
	}

	if c.StartPath == "" {
		c.StartPath = "."
	}
	return warnings
}

// IsHelp reports whether err is the result of -h/--help.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprint(out, `millr - miller-columns file browser

USAGE:
    millr [OPTIONS] [DIRECTORY]

OPTIONS:
    -h, --help            Show this help message and exit
    -a, --all             Show hidden files
        --workers N       Background directory loaders (default: CPU count)
        --cache N         Maximum cached directory listings
        --depth N         Ancestor columns to show (0 = up to the root)
        --log-file PATH   Write logs to PATH
        --log-level LVL   debug, info, warn or error
        --bookmarks PATH  Bookmark database location

KEYS:
    j/k, arrows     move          h/l, left/right  parent / enter
    g/G             top / bottom  PgUp/PgDn        page
    . or a          hidden files  s                reverse sort
    r, Ctrl-R       refresh       ~                home
    m<key>          set bookmark  '<key>           jump to bookmark
    M<key>          drop bookmark t                tag / untag entry
    /               filter        Esc              clear filter
    Ctrl-T          new tab       Ctrl-W           close tab
    Tab, Shift-Tab  switch tab    Ctrl-Z           suspend
    q, Ctrl-C       quit
`)
}
