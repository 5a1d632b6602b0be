package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/drwave-www/worldwidewaves-engine/internal/adapter/http"
	kafkaadapter "github.com/drwave-www/worldwidewaves-engine/internal/adapter/kafka"
	mqttadapter "github.com/drwave-www/worldwidewaves-engine/internal/adapter/mqtt"
	"github.com/drwave-www/worldwidewaves-engine/internal/catalog"
	"github.com/drwave-www/worldwidewaves-engine/internal/config"
	"github.com/drwave-www/worldwidewaves-engine/internal/observability"
	"github.com/drwave-www/worldwidewaves-engine/internal/planner"
	"github.com/drwave-www/worldwidewaves-engine/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "events", len(cat.Events()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	favorites, err := store.OpenFavorites(ctx, cfg.FavoritesDB, logger)
	if err != nil {
		return fmt.Errorf("failed to open favorites store: %w", err)
	}
	defer favorites.Close()

	// Restore persisted favorite flags before observation starts.
	flagged, err := favorites.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	for _, id := range flagged {
		if e, ok := cat.Event(id); ok {
			e.SetFavorite(true)
		}
	}

	positions := mqttadapter.NewPositionSource(mqttadapter.Config{
		Broker:    cfg.MQTTBroker,
		Port:      cfg.MQTTPort,
		Topic:     cfg.MQTTTopic,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
		UseTLS:    cfg.MQTTUseTLS,
		MaxFixAge: cfg.MaxFixAge,
	}, logger, metrics)
	if err := positions.Start(); err != nil {
		return fmt.Errorf("failed to start position feed: %w", err)
	}
	defer positions.Stop()

	notifier := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer notifier.Close()

	pln := planner.New(cat, positions, notifier, cfg.ObservationHorizon, logger, metrics)
	pln.Start()

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, pln, favorites, positions, logger, metrics)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTime)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := pln.Stop(shutdownCtx); err != nil {
		logger.Error("planner shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
