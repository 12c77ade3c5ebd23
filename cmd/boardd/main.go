package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bridgeboard/bridgeboard/internal/api"
	"github.com/bridgeboard/bridgeboard/internal/board"
	"github.com/bridgeboard/bridgeboard/internal/config"
	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/internal/metrics"
	"github.com/bridgeboard/bridgeboard/internal/payload"
	"github.com/bridgeboard/bridgeboard/internal/relay"
	"github.com/bridgeboard/bridgeboard/internal/util"
	"github.com/bridgeboard/bridgeboard/internal/vrf"
)

var (
	configPath = flag.String("config", "~/.bridgeboard/config.yaml", "Path to config file")
	listenAddr = flag.String("listen", "", "API listen address (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(config.ExpandPath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.API.ListenAddr = *listenAddr
	}

	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Devnet collaborators: an in-memory payload store, a push-driven relay,
	// and the insecure VRF verifier. Production deployments swap these for
	// live collaborator clients.
	store := payload.NewMemoryStore()
	chain := relay.NewStatic()

	b, err := board.New(board.Config{
		ReplicationFactor: cfg.Protocol.ReplicationFactor,
		ClaimExpiryBlocks: cfg.Protocol.ClaimExpiryBlocks,
	}, store, chain, vrf.Insecure{}, chain)
	if err != nil {
		log.Fatalf("Failed to create board: %v", err)
	}

	collector := metrics.NewCollector()
	pm := metrics.NewPrometheusCollector(collector)

	server := api.NewServer(cfg.API, b, pm)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Failed to start API server: %v", err)
	}

	util.SafeGoWithName("gauge-refresh", func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collector.SetRequestCount(int64(b.RequestCount()))
				collector.SetPopulationSize(int64(b.Population().ActiveCount()))
			}
		}
	})

	fmt.Printf("bridgeboard daemon listening on %s\n", cfg.API.ListenAddr)

	<-sigChan
	fmt.Println("\nShutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping API server: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Daemon.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Daemon.LogFormat == "text" {
		logging.SetTextOutput(os.Stdout)
		return
	}
	logging.SetLevel(level)
}
