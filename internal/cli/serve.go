package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gitmorph/internal/server"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/source/gitrepo"
)

// serveCommand runs the HTTP API and websocket feed.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		host     string
		port     int
		repo     string
		basePath string
		policy   string
		noWatch  bool
		noRepo   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the visualization API and live websocket feed",
		Long: `Serve an HTTP API around one visualization session.

The server reads the configured repository at startup and, unless --no-watch
is given, reloads it whenever its refs change. Clients can also post logs
to /api/visualize. Every transition is pushed to websocket clients on
/api/ws, and Prometheus metrics are exposed on /metrics.

Flags override the values from gitmorph.toml and GITMORPH_* variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.Config
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Host = host
			}
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("repo") {
				cfg.Repo = repo
			}
			if flags.Changed("base-path") {
				cfg.BasePath = errors.NormalizeBasePath(basePath)
			}
			if flags.Changed("policy") {
				cfg.Policy = policy
			}
			if noWatch {
				cfg.Watch = false
			}

			opts := server.Options{Config: cfg, Logger: c.Logger}
			if !noRepo {
				src, err := gitrepo.Open(cfg.Repo, gitrepo.Options{
					MaxEntries: cfg.MaxLogEntries,
					Logger:     c.Logger,
				})
				if err != nil {
					c.Logger.Warn("not following a repository", "repo", cfg.Repo, "error", err)
				} else {
					opts.Source = src
				}
			}
			if opts.Source == nil {
				opts.Config.Watch = false
			}

			metrics := server.NewMetrics(prometheus.NewRegistry())
			metrics.Install()
			opts.Metrics = metrics

			srv, err := server.New(opts)
			if err != nil {
				return err
			}
			c.Logger.Info("serving", "addr", "http://"+opts.Config.Addr()+opts.Config.BasePath,
				"project", cfg.ProjectName, "policy", cfg.Policy, "watch", opts.Config.Watch)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&repo, "repo", "", "repository to follow (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "URL prefix for the API routes")
	cmd.Flags().StringVar(&policy, "policy", "", "what to do with a request during a transition: replace, reject, queue")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the repository changes")
	cmd.Flags().BoolVar(&noRepo, "no-repo", false, "do not read a repository; only serve logs posted to the API")
	return cmd
}
