package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pefman/hubdice/internal/config"
	"github.com/pefman/hubdice/internal/stats"
	"github.com/pefman/hubdice/internal/tables"
	"github.com/sirupsen/logrus"
)

// Build metadata injected via -ldflags at build time
var (
	buildVersion = "dev"
	buildTime    = ""
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store stats.Store = stats.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := stats.OpenPostgres(openCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("stats: open postgres")
		}
		store = pg
	}
	defer store.Close()

	dice, err := tables.ScriptedDice(cfg.DiceScript)
	if err != nil {
		log.WithError(err).Fatal("config: DICE_SCRIPT")
	}
	manager := tables.NewManager(log, tables.Options{Variant: cfg.Variant, Store: store, Dice: dice})
	go manager.RunJanitor(ctx, time.Minute, cfg.TableIdleTTL)

	gs := &gameServer{tables: manager, store: store, log: log, step: cfg.PresentDelay}
	srv := &http.Server{Addr: cfg.GameAddr(), Handler: gs.routes(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "version": buildVersion, "step": cfg.PresentDelay}).Info("hubdice game server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("listen")
	}
}
