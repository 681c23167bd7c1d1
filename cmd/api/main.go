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

const janitorInterval = time.Minute

func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (stats.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("stats: DATABASE_URL not set, keeping results in memory")
		return stats.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := stats.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("stats: connected to postgres")
	return store, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("stats: open store")
	}
	defer store.Close()

	dice, err := tables.ScriptedDice(cfg.DiceScript)
	if err != nil {
		log.WithError(err).Fatal("config: DICE_SCRIPT")
	}
	if dice != nil {
		log.WithField("script", cfg.DiceScript).Warn("dice: every table uses scripted dice")
	}
	manager := tables.NewManager(log, tables.Options{Variant: cfg.Variant, Store: store, Dice: dice})
	go manager.RunJanitor(ctx, janitorInterval, cfg.TableIdleTTL)

	srv := &http.Server{
		Addr:              cfg.APIAddr(),
		Handler:           withCORS(newRouter(manager, store, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "version": buildVersion}).Info("hubdice API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("listen")
	}
}
