package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"arena-game/config"
	"arena-game/game"
	"arena-game/server"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing arena.yaml")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	db, err := server.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	analytics := server.NewAnalytics(db, log)
	defer analytics.Stop()

	store := game.NewStore()
	resolver := game.NewResolver(store, cfg.RespawnDelay())
	coord := server.NewCoordinator(store, resolver, cfg.SpawnBounds(), db, analytics, log)
	go coord.Run()
	defer coord.Stop()

	auth := server.NewAuth(db, log)
	hub := server.NewHub(coord, auth, cfg.MaxConnsPerIP, cfg.MaxConns, log)
	mux := server.SetupRoutes(hub, coord, db, cfg.PublicURL, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")
	srv.Close()
}
