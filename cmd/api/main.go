package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rosterly.org/internal/auth"
	"rosterly.org/internal/config"
	"rosterly.org/internal/demo"
	"rosterly.org/internal/directory"
	"rosterly.org/internal/httpapi"
	"rosterly.org/internal/obs"
	"rosterly.org/internal/recommend"
	"rosterly.org/internal/roster"
	"rosterly.org/internal/store/pg"
	"rosterly.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "none"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Version == "dev" {
		cfg.Version = version
	}

	obs.Init()
	obs.InitBuildInfo(cfg.Version, commit)

	catalog, err := roster.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load role catalog: %v", err)
	}

	// Without a recommender URL the engine runs on the local heuristic.
	var rec recommend.Recommender = recommend.LeastRecent{}
	if cfg.RecommenderURL != "" {
		rec = recommend.NewClient(cfg.RecommenderURL, recommend.WithAPIKey(cfg.RecommenderKey))
	}

	engine, err := roster.NewEngine(catalog, rec)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	var dir directory.Service
	var ready httpapi.ReadyProbe = func() bool { return true }
	if cfg.PgDSN != "" {
		store, err := pg.Open(cfg.PgDSN)
		if err != nil {
			log.Fatalf("open directory store: %v", err)
		}
		dir = store
		ready = func() bool { return store.Ping(context.Background()) == nil }
	} else {
		// No database configured: serve a seeded in-memory directory so the
		// API is usable out of the box.
		scenario, err := demo.MidweekWeekendScenario()
		if err != nil {
			log.Fatalf("build demo scenario: %v", err)
		}
		demo.NewGenerator(1).Populate(&scenario, 16, "")
		dir = directory.NewInMemory(scenario.Members...)
		log.Printf("no ROSTERLY_PG_DSN set, serving %d demo members in memory", len(scenario.Members))
	}

	authService := auth.NewService(
		auth.WithAccessTTL(cfg.AccessTokenTTL),
		auth.WithDevTokens(cfg.DevTokens),
	)

	api := httpapi.New(httpapi.Options{
		Ready:     ready,
		Version:   cfg.Version,
		Engine:    engine,
		Directory: dir,
		Stream:    stream.New(),
		Auth:      authService,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("starting rosterly-api %s on %s", cfg.Version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	_ = dir.Close()
	log.Println("stopped")
}
