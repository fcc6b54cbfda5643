package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/cosmicspace/cisp/app/services/cisp/handlers"
	"github.com/cosmicspace/cisp/business/core/notify"
	"github.com/cosmicspace/cisp/business/sys/database"
	"github.com/cosmicspace/cisp/business/web/metrics"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/state"
	"github.com/cosmicspace/cisp/foundation/events"
	"github.com/cosmicspace/cisp/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("CISP")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:3000"`
			CORSOrigin      string        `conf:"default:*"`
			StaticDir       string        `conf:"default:app/services/cisp/static"`
		}
		Storage struct {
			Backend        string `conf:"default:leveldb"`
			LevelDBPath    string `conf:"default:zblock/cisp.db"`
			RedisURL       string `conf:"default:redis://localhost:6379/0,mask"`
			RedisNamespace string `conf:"default:cisp"`
			RedisChannel   string `conf:"default:cisp:changes"`
		}
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "CISP ledger, wallet and marketplace service",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "CISP"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`   ____ ___ ____  ____  `)
	fmt.Println(`  / ___|_ _/ ___||  _ \ `)
	fmt.Println(` | |    | |\___ \| |_) |`)
	fmt.Println(` | |___ | | ___) |  __/ `)
	fmt.Println(`  \____|___|____/|_|    `)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Genesis Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Infow("startup", "status", "genesis file not found, using defaults", "path", cfg.State.GenesisPath)
		gen = genesis.Default()

	case err != nil:
		return fmt.Errorf("loading genesis: %w", err)
	}

	// =========================================================================
	// Storage Support

	log.Infow("startup", "status", "opening durable store", "backend", cfg.Storage.Backend)

	store, err := database.Open(context.Background(), database.Config{
		Backend:        cfg.Storage.Backend,
		LevelDBPath:    cfg.Storage.LevelDBPath,
		RedisURL:       cfg.Storage.RedisURL,
		RedisNamespace: cfg.Storage.RedisNamespace,
		RedisChannel:   cfg.Storage.RedisChannel,
	})
	if err != nil {
		return err
	}
	defer func() {
		log.Infow("shutdown", "status", "closing durable store", "backend", cfg.Storage.Backend)
		store.Close()
	}()

	// =========================================================================
	// Ledger Support

	m := metrics.New("cisp")

	// The core packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package,
	// next to the typed change notifications.
	evts := events.New()
	ntf := notify.New(evts, m)
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		ntf.Log(s)
	}

	// The state value represents this execution context and manages the
	// ledger, wallets, tokens and marketplace over the durable store.
	st, err := state.New(context.Background(), state.Config{
		Shared:    store,
		Genesis:   gen,
		EvHandler: ev,
		Notifier:  ntf,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	if err := st.Start(context.Background()); err != nil {
		return fmt.Errorf("starting state: %w", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, store, m)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		State:      st,
		Evts:       evts,
		Metrics:    m,
		StaticDir:  cfg.Web.StaticDir,
		CORSOrigin: cfg.Web.CORSOrigin,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
