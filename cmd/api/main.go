package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"devscope/internal/admins"
	"devscope/internal/bot"
	"devscope/internal/detected"
	"devscope/internal/handlers"
	"devscope/internal/ledger"
	"devscope/internal/middleware"
	"devscope/internal/models"
	"devscope/internal/resolver"
	"devscope/internal/routes"
	"devscope/internal/store"
	"devscope/pkg/broadcast"
	"devscope/pkg/browser"
	"devscope/pkg/config"
	"devscope/pkg/feed"
	"devscope/pkg/metadata"
	"devscope/pkg/solana"
	"devscope/pkg/trade"
)

const detectedCapacity = 100

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.LoadAppConfig()
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store: postgres when configured, memory otherwise.
	var st store.Store = store.NewMemoryStore()
	if cfg.Database.DSN() != "" {
		if err := config.InitDB(cfg.Database); err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		if cfg.RunMigrations {
			if err := config.ExecuteMigrations(cfg.MigrationsDir); err != nil {
				log.WithError(err).Fatal("Failed to run migrations")
			}
		}
		st = store.NewGormStore(config.DB)
	} else {
		log.Warn("Database not configured, using in-memory store")
	}

	var mirror broadcast.Mirror
	if cfg.RabbitMQ.URL() != "" {
		if err := config.InitRabbitMQ(cfg.RabbitMQ); err != nil {
			log.WithError(err).Error("RabbitMQ unavailable, broadcasts will not be mirrored")
		} else {
			defer config.RabbitMQ.Close()
			pub, err := config.NewPublisher(cfg.RabbitMQ.Queue)
			if err != nil {
				log.WithError(err).Error("Failed to create broadcast publisher")
			} else {
				defer pub.Close()
				mirror = pub
			}
		}
	} else {
		log.Info("RabbitMQ not configured, skipping broadcast mirror")
	}

	hub := broadcast.NewHub(mirror)
	defer hub.Close()

	directory := admins.NewDirectory(st)
	if err := directory.Load(ctx); err != nil {
		log.WithError(err).Warn("Failed to load admin lists, starting empty")
	}

	state := bot.NewState()
	if cfg.KeystorePath != "" {
		key, err := solana.LoadKeystore(cfg.KeystorePath, cfg.KeystorePassword)
		if err != nil {
			log.WithError(err).Error("Failed to load keystore")
		} else {
			state.SetPrivateKey(key)
			if addr, err := solana.AddressOf(key); err == nil {
				log.WithField("wallet", addr).Info("Trading key loaded from keystore")
			}
		}
	}

	session := browser.NewSession(browser.Config{DataDir: cfg.BrowserSessionDir}, hub)
	defer session.Close()
	go func() {
		if err := session.Init(ctx); err != nil {
			log.WithError(err).Error("Failed to initialize browser session")
		}
	}()

	dexscreener := trade.NewDexScreener(cfg.DexScreenerURL)
	var trader bot.Executor
	if cfg.PumpPortalAPIKey != "" {
		trader = trade.NewClient(cfg.PumpPortalAPIKey, cfg.PumpPortalTrade, cfg.RPCEndpoint)
	} else {
		log.Warn("PUMP_PORTAL_API_KEY not set, trades will fail")
	}

	dispatcher := bot.NewDispatcher(bot.Deps{
		State:     state,
		Directory: directory,
		Ledger:    ledger.New(st),
		Cache:     detected.NewCache(detectedCapacity),
		Publisher: hub,
		Resolver:  resolver.New(directory, session, hub),
		Trader:    trader,
		Links:     dexscreener,
		Metadata:  metadata.NewFetcher(cfg.MetadataTimeout),
	})
	defer dispatcher.Wait()

	feeds := feed.NewManager(cfg.PumpPortalWSS, func(ev models.TokenEvent, platform string) {
		if state.Running() {
			dispatcher.HandleToken(ev, platform)
		}
	}, hub)
	defer feeds.Stop()

	var endpoints []string
	if cfg.RPCEndpoint != "" {
		endpoints = append(endpoints, cfg.RPCEndpoint)
	}

	h := handlers.New(ctx, handlers.Handler{
		State:        state,
		Dispatcher:   dispatcher,
		Hub:          hub,
		Feeds:        feeds,
		Session:      session,
		Pairs:        dexscreener,
		Store:        st,
		RPCEndpoints: endpoints,
	})

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             5,
	})

	scheduler := cron.New()
	mustSchedule(scheduler, cfg.AdminSyncCron, func() {
		if err := directory.Load(ctx); err != nil {
			log.WithError(err).Warn("Scheduled admin list sync failed")
		}
	})
	mustSchedule(scheduler, cfg.SessionCheckCron, func() {
		if !session.Initialized() {
			return
		}
		status := session.CheckSession(ctx)
		log.WithFields(log.Fields{
			"logged_in": status.LoggedIn,
			"state":     status.State,
		}).Debug("Scheduled session check")
	})
	mustSchedule(scheduler, "@every 1m", func() {
		if n := limiter.Sweep(); n > 0 {
			log.WithField("removed", n).Debug("Swept idle rate limiters")
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRouter(h, cfg.AllowedOrigins, limiter),
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	state.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if _, err := c.AddFunc(spec, job); err != nil {
		log.WithFields(log.Fields{
			"spec":  spec,
			"error": err.Error(),
		}).Fatal("Invalid cron schedule")
	}
}
