// Package cli implements the gitmorph command-line interface.
//
// # Commands
//
//   - parse: validate a commit log and print it as a table or JSON
//   - layout: compute node positions and write the snapshot as JSON
//   - plan: compute the transition between two logs
//   - render: write SVG, DOT, PNG or JSON renderings of a log
//   - animate: play a before/after loop in the terminal
//   - serve: run the HTTP and websocket server
//   - cache: show or clear the layout and render cache
//   - completion: generate shell completion scripts
//
// Logs are read from a file argument, from stdin ("-"), or straight from a
// repository with --repo. All commands accept --verbose (-v) for debug
// logging and --config to point at a gitmorph.toml or gitmorph.yaml file.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/internal/config"
	"github.com/matzehuels/gitmorph/pkg/buildinfo"
	"github.com/matzehuels/gitmorph/pkg/cache"
	"github.com/matzehuels/gitmorph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gitmorph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gitmorph animates git histories",
		Long: `gitmorph turns git log output into a positioned commit graph and animates
the transition between two histories: commits slide into place, new commits
fade in from their parents and removed ones collapse away.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./gitmorph.toml or ./gitmorph.yaml)")

	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.animateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies its log level. --verbose wins
// over the configured level.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{Path: c.configPath})
	if err != nil {
		return err
	}
	c.Config = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = LogInfo
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	c.Logger.Debug("configuration loaded", "project", cfg.ProjectName, "policy", cfg.Policy)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the file cache, or by no
// cache at all when noCache is set.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir := c.Config.CacheDir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			c.Logger.Debug("no user cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// pipelineOptions returns the configured viewport.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Width:  c.Config.Width,
		Height: c.Config.Height,
		Logger: c.Logger,
	}
}
