package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dialflow/dialflow/internal/adapters/file"
	"github.com/dialflow/dialflow/internal/adapters/httpcall"
	"github.com/dialflow/dialflow/internal/adapters/memory"
	"github.com/dialflow/dialflow/internal/adapters/openai"
	redisstore "github.com/dialflow/dialflow/internal/adapters/redis"
	"github.com/dialflow/dialflow/internal/adapters/telephony"
	"github.com/dialflow/dialflow/internal/config"
	"github.com/dialflow/dialflow/internal/logging"
	"github.com/dialflow/dialflow/internal/relay"
	"github.com/dialflow/dialflow/pkg/intent"
	"github.com/dialflow/dialflow/pkg/ports"
	"github.com/dialflow/dialflow/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the call relay server",
	Long:  `Starts the websocket relay endpoint that telephony providers connect calls to.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides DIALFLOW_LISTEN_ADDR)")
	serveCmd.Flags().String("workflows", "", "Workflow directory (overrides DIALFLOW_WORKFLOW_DIR)")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	if dir, _ := cmd.Flags().GetString("workflows"); dir != "" {
		cfg.WorkflowDir = dir
	}

	logger := logging.New(parseLevel(cfg.LogLevel))

	var store ports.CallStore
	if cfg.RedisAddr != "" {
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rs.Close()
		store = rs
		logger.Info("using redis call store", "addr", cfg.RedisAddr)
	} else {
		store = memory.NewStore()
		logger.Info("using in-memory call store")
	}

	var provider ports.AIProvider
	if cfg.OpenAIKey != "" {
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		provider = openai.New(cfg.OpenAIKey, cfg.OpenAIModel, opts...)
		logger.Info("ai provider configured", "model", cfg.OpenAIModel)
	} else {
		logger.Warn("no OPENAI_API_KEY set, ai nodes will use fallback messages")
	}

	var control ports.TelephonyControl
	if cfg.TelephonyBaseURL != "" {
		control = telephony.New(cfg.TelephonyBaseURL, cfg.TelephonyAccountID, cfg.TelephonyAuthToken)
		logger.Info("telephony control configured", "base_url", cfg.TelephonyBaseURL)
	}

	registry := session.NewRegistry(
		session.WithStore(store),
		session.WithIdleTimeout(cfg.IdleTimeout),
		session.WithLogger(logger),
	)
	defer registry.Close()

	detectorOpts := []intent.Option{intent.WithLogger(logger)}
	if provider != nil {
		detectorOpts = append(detectorOpts, intent.WithProvider(provider))
	}

	handler := &relay.Handler{
		Graphs:    file.NewSource(cfg.WorkflowDir),
		Registry:  registry,
		Provider:  provider,
		HTTPC:     httpcall.New(),
		Telephony: control,
		Detector:  intent.NewDetector(detectorOpts...),
		Logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	handler.Routes(r)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("starting relay server", "addr", cfg.ListenAddr, "workflows", cfg.WorkflowDir)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err

	case sig := <-shutdown:
		logger.Info("starting shutdown", "signal", sig.String())

		// Give live calls a deadline to finish their current turn.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return err
			}
		}
		logger.Info("server stopped")
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
