package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/senpai-bg/senpai-client/internal/adapters/httpapi"
	"github.com/senpai-bg/senpai-client/internal/adapters/localstore"
	"github.com/senpai-bg/senpai-client/internal/adapters/memorybus"
	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/buildinfo"
	"github.com/senpai-bg/senpai-client/internal/config"
	"github.com/senpai-bg/senpai-client/internal/gateway"
	"github.com/senpai-bg/senpai-client/internal/metrics"
)

func main() {
	def := config.Load()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:5173)")
	dbPath := flag.String("db", def.DBPath, "Chemin SQLite (ex: senpai.db)")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "senpai-server").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := localstore.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	store := localstore.NewStore(db.SQL, bus, logger.With().Str("component", "store").Logger())
	collector := metrics.NewCollector()

	backends := def.Backends
	gw := gateway.New(store, bus, logger.With().Str("component", "gateway").Logger(),
		backends.MemberURL, backends.VideoURL).WithMetrics(collector)

	memberAPI := app.NewMemberAPI(gw, backends.MemberURL)
	catalogAPI := app.NewCatalogAPI(gw, backends.CatalogURL)
	sourceAPI := app.NewEpisodeSourceAPI(gw, backends.EpisodeSourceURL, store,
		logger.With().Str("component", "episode-source").Logger())
	videoAPI := app.NewVideoAPI(gw, backends.MemberURL, backends.VideoURL,
		logger.With().Str("component", "video").Logger())

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth := app.NewAuthState(store, memberAPI, bus, logger.With().Str("component", "auth").Logger())
	auth.Start(shutdownCtx)

	watch := app.NewWatchManager(app.WatchDeps{
		Member:  memberAPI,
		Catalog: catalogAPI,
		Source:  sourceAPI,
		Video:   videoAPI,
		Auth:    auth,
		Store:   store,
		Bus:     bus,
		Metrics: collector,
		Logger:  logger.With().Str("component", "watch").Logger(),
	})

	srv := httpapi.NewServer(logger, auth, memberAPI, catalogAPI, watch, bus, collector)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Les sessions vidéo côté serveur sont libérées en best-effort avant de
	// partir.
	watch.CloseAll(ctx)
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
