// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"pongmatch/internal/auth"
	"pongmatch/internal/config"
	"pongmatch/internal/network"
	"pongmatch/internal/services/cluster"
	"pongmatch/internal/services/results"
	"pongmatch/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("create jwt verifier: %w", err)
	}

	health := cluster.NewHealthAggregator()

	// Sem NATS_URL os resultados só vão para o log.
	var publisher results.Publisher = results.NewLogPublisher(logger)
	if cfg.NATSURL != "" {
		conn, err := results.ConnectNATS(cfg.NATSURL, cfg.ServiceName, logger)
		if err != nil {
			return err
		}
		natsPublisher := results.NewNATSPublisher(conn, cfg.ResultsSubject, logger)
		defer natsPublisher.Close()
		health.AddCheck("nats", natsPublisher.Check)
		publisher = natsPublisher
		logger.Info("[Main] publishing results to nats", "url", cfg.NATSURL, "subject_prefix", cfg.ResultsSubject)
	}

	engine := session.NewEngine(session.EngineConfig{
		AcceptTimeout:   cfg.AcceptTimeout,
		AbandonTimeout:  cfg.AbandonTimeout,
		WinningScore:    cfg.WinningScore,
		RequeueOnCancel: cfg.RequeueOnCancel,
		Results:         publisher,
		Logger:          logger,
	})
	go engine.Run(ctx)

	server := network.NewServer(engine.Handler, verifier, network.ServerOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	server.Router().HandleFunc("/health", health.Handler())
	server.Router().HandleFunc("/livez", cluster.NewBasicHealthHandler())

	if cfg.ConsulAddr != "" {
		deregister, err := registerInConsul(cfg, logger)
		if err != nil {
			// O jogo funciona sem o Consul; só não fica descobrível.
			logger.Warn("[Main] consul registration failed", "error", err)
		} else {
			defer deregister()
		}
	}

	logger.Info("[Main] pong session server starting",
		"addr", cfg.HTTPAddr,
		"accept_timeout", cfg.AcceptTimeout,
		"winning_score", cfg.WinningScore,
		"requeue_on_cancel", cfg.RequeueOnCancel,
	)
	if err := server.Listen(ctx, cfg.HTTPAddr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	engine.Stop()
	logger.Info("[Main] server stopped")
	return nil
}

func registerInConsul(cfg config.Config, logger *slog.Logger) (func(), error) {
	client, err := cluster.NewConsulClient(cfg.ConsulAddr, logger)
	if err != nil {
		return nil, err
	}
	_, portStr, err := net.SplitHostPort(cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("parse http addr %q: %w", cfg.HTTPAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse port %q: %w", portStr, err)
	}

	serviceID, err := cluster.RegisterService(client, cluster.Registration{
		Name:     cfg.ServiceName,
		Port:     port,
		Hostname: cfg.AdvertisedHostname,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[Main] registered in consul", "service_id", serviceID)

	return func() {
		if err := cluster.DeregisterService(client, serviceID); err != nil {
			logger.Warn("[Main] consul deregistration failed", "error", err)
		}
	}, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
