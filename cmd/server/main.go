package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/detector"
	"github.com/pulseboard/alert-intel/internal/engine"
	"github.com/pulseboard/alert-intel/internal/lifecycle"
	"github.com/pulseboard/alert-intel/internal/notify"
	"github.com/pulseboard/alert-intel/internal/storage"
	"github.com/pulseboard/alert-intel/internal/telemetry"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatal("Failed to read config file", zap.Error(err))
	}

	// Connect to NATS
	opts := []nats.Option{
		nats.Name(viper.GetString("app.name")),
		nats.MaxReconnects(viper.GetInt("nats.max_reconnects")),
		nats.ReconnectWait(viper.GetDuration("nats.reconnect_wait")),
		nats.Timeout(viper.GetDuration("nats.connect_timeout")),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS connection error", zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	var nc *nats.Conn
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(viper.GetString("nats.urls.0"), opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		logger.Fatal("Failed to connect to NATS after retries", zap.Error(err))
	}
	defer nc.Close()

	logger.Info("Connected to NATS successfully", zap.String("url", nc.ConnectedUrl()))

	js, err := nc.JetStream()
	if err != nil {
		logger.Fatal("Failed to create JetStream context", zap.Error(err))
	}

	// Create alert log storage
	store, err := storage.NewSQLiteAlertLog(logger, viper.GetString("storage.path"))
	if err != nil {
		logger.Fatal("Failed to create alert log storage", zap.Error(err))
	}
	defer store.Close()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	// Telemetry provider fed from JetStream, enriched with host metrics
	var probe *telemetry.HostProbe
	if viper.GetBool("telemetry.host_probe") {
		probe = telemetry.NewHostProbe(logger)
	}
	provider := telemetry.NewStreamProvider(logger, probe)
	if err := provider.Start(ctx, js); err != nil {
		logger.Fatal("Failed to start telemetry provider", zap.Error(err))
	}
	defer provider.Stop()

	// Lifecycle manager persists status changes into the alert log and
	// accepts action commands over NATS
	manager := lifecycle.NewManager(logger, store)
	if err := manager.SubscribeActions(ctx, js); err != nil {
		logger.Fatal("Failed to subscribe to action commands", zap.Error(err))
	}
	defer manager.Stop()

	// Notification fan-out for urgent alerts
	notifier := notify.NewNotifier(logger)
	notifier.RegisterChannel("log", &notify.LogChannel{Logger: logger})
	notifier.RegisterChannel("stream", &notify.StreamChannel{JS: js})

	// Detection thresholds, overridable from config
	detectorCfg := detector.DefaultConfig()
	if err := viper.UnmarshalKey("detector", &detectorCfg); err != nil {
		logger.Fatal("Failed to parse detector config", zap.Error(err))
	}

	eng := engine.New(engine.Options{
		Provider:         provider,
		Lifecycle:        manager,
		JS:               js,
		Store:            store,
		Notifier:         notifier,
		Detector:         detectorCfg,
		AlertInterval:    viper.GetDuration("engine.alert_interval"),
		ForecastInterval: viper.GetDuration("engine.forecast_interval"),
	}, logger)

	if err := eng.Start(ctx); err != nil {
		logger.Fatal("Failed to start engine", zap.Error(err))
	}

	// Prune old alert log records daily
	go func() {
		retention := viper.GetDuration("storage.retention")
		if retention <= 0 {
			retention = 30 * 24 * time.Hour
		}
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.DeleteBefore(ctx, time.Now().Add(-retention)); err != nil {
					logger.Error("Failed to prune alert log", zap.Error(err))
				}
			}
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	eng.Stop()
	logger.Info("Server shutting down gracefully")
}
