package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"marsd/internal/common/fsutil"
	"marsd/internal/config"
	"marsd/internal/httpapi"
	"marsd/internal/scorer"
	"marsd/internal/trainer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "marsd: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Train and serve are separate
// subcommands, so the two routines can never run in one invocation and
// an unrecognized mode fails with a usage error.
func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		logLevel string
		flagCfg  config.Config
	)
	root := &cobra.Command{
		Use:           "marsd",
		Short:         "MARS regression training and serving for model containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Optional config file (.yaml/.json/.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	// Flags win over the config file; the file wins over the
	// conventional container defaults.
	resolve := func() (config.Config, zerolog.Logger, error) {
		logger := newLogger(logLevel)
		cfg := flagCfg
		if cfgPath != "" {
			fileCfg, err := config.Load(cfgPath)
			if err != nil {
				return cfg, logger, err
			}
			cfg = cfg.Merge(fileCfg)
		}
		cfg = cfg.Merge(config.Default())
		if err := expandPaths(&cfg); err != nil {
			return cfg, logger, err
		}
		return cfg, logger, nil
	}

	trainCmd := &cobra.Command{
		Use:     "train",
		Short:   "Run one training pass and exit",
		Example: "  marsd train --input-dir /opt/ml/input/data/train",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := resolve()
			if err != nil {
				return err
			}
			return trainer.New(cfg, logger).Run(cmd.Context())
		},
	}
	trainCmd.Flags().StringVar(&flagCfg.HyperparamsFile, "hyperparams", "", "Path to the JSON hyperparameter file")
	trainCmd.Flags().StringVar(&flagCfg.InputDir, "input-dir", "", "Directory of delimited-text training files")
	trainCmd.Flags().StringVar(&flagCfg.ModelDir, "model-dir", "", "Directory the model artifact is written to")
	trainCmd.Flags().StringVar(&flagCfg.OutputDir, "output-dir", "", "Directory for fitted values and the success marker")

	var (
		corsEnabled bool
		corsOrigins string
		maxBody     int64
	)
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve predictions over HTTP until terminated",
		Example: "  marsd serve --addr :8080 --model-dir /opt/ml/model",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := resolve()
			if err != nil {
				return err
			}
			httpapi.SetLogger(logger)
			httpapi.SetMaxBodyBytes(maxBody)
			httpapi.SetCORSOptions(corsEnabled, splitList(corsOrigins),
				[]string{http.MethodGet, http.MethodPost}, []string{"*"})
			return runServe(cfg, logger)
		},
	}
	serveCmd.Flags().StringVar(&flagCfg.Addr, "addr", "", "HTTP listen address, e.g. :8080")
	serveCmd.Flags().StringVar(&flagCfg.ModelDir, "model-dir", "", "Directory the model artifact is read from")
	serveCmd.Flags().BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS middleware")
	serveCmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
	serveCmd.Flags().Int64Var(&maxBody, "max-body-bytes", 0, "Maximum request body size (0 = default)")

	root.AddCommand(trainCmd, serveCmd)
	return root
}

// runServe blocks until SIGINT/SIGTERM or a listener failure, then
// shuts the server down gracefully.
func runServe(cfg config.Config, logger zerolog.Logger) error {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	if !fsutil.PathExists(cfg.ModelDir) {
		logger.Warn().Str("model_dir", cfg.ModelDir).Msg("model dir missing; /invocations will return 503 until trained")
	}
	mux := httpapi.NewMux(scorer.New(cfg.ModelDir))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("model_dir", cfg.ModelDir).Msg("marsd serving")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// expandPaths resolves a leading '~' in every configured path, for
// local runs outside the container layout.
func expandPaths(cfg *config.Config) error {
	for _, p := range []*string{&cfg.HyperparamsFile, &cfg.InputDir, &cfg.ModelDir, &cfg.OutputDir} {
		expanded, err := fsutil.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(lvl)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
