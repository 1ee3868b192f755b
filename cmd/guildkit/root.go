package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/guildkit/pkg/config"
	"github.com/Sternrassler/guildkit/pkg/logging"
	"github.com/Sternrassler/guildkit/pkg/metrics"
	"github.com/Sternrassler/guildkit/pkg/rest"
)

// app holds what the subcommands share once the root command has run.
type app struct {
	configPath  string
	token       string
	baseURL     string
	logLevel    string
	metricsAddr string

	cfg       *config.Config
	logger    zerolog.Logger
	requester *rest.Requester
	redis     *redis.Client
	metrics   *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "guildkit",
		Short: "Export paginated collections of the platform REST API",
		Long: `guildkit walks paginated REST collections (message history, bans, audit
log, pins) page by page, respecting rate limits, and writes every element as
one JSON line to stdout.

Configuration is read from guildkit.yaml (or --config), GUILDKIT_* environment
variables and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./guildkit.yaml or ~/.config/guildkit/guildkit.yaml)")
	flags.StringVar(&a.token, "token", "", "bot token (overrides config and GUILDKIT_TOKEN)")
	flags.StringVar(&a.baseURL, "base-url", "", "API base url")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")

	root.AddCommand(
		newHistoryCmd(a),
		newPinsCmd(a),
		newBansCmd(a),
		newAuditLogCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the requester.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Token == "" {
		return errors.New("no token: use --token, GUILDKIT_TOKEN or the config file")
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging())
	a.logger = logging.NewLogger("cli")

	if a.redis = cfg.RedisClient(); a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
	}

	a.requester, err = rest.New(cfg.REST(a.redis))
	if err != nil {
		return fmt.Errorf("create requester: %w", err)
	}

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return nil
}

// run executes fn and releases what setup acquired, also when fn fails.
func (a *app) run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if cerr := a.shutdown(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx)
}

func (a *app) shutdown() error {
	var errs []error
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metrics.Shutdown(ctx))
	}
	if a.requester != nil {
		errs = append(errs, a.requester.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
