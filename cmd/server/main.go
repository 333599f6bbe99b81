package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directchat/internal/config"
	"directchat/internal/db"
	clog "directchat/internal/log"
	"directchat/internal/server"
	"directchat/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责加载配置、初始化日志、打开存储并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store open")
	}

	app := server.NewApp(st)
	go app.Hub.Run()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.SetupRouter(cfg, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("bye")
}

func openStore(cfg config.Config) (*store.Gateway, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemoryGateway(), nil
	case config.DriverJSON:
		return store.OpenJSONDir(cfg.DataDir)
	default:
		gdb, err := db.Connect(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gdb); err != nil {
			return nil, err
		}
		return db.NewGateway(gdb), nil
	}
}
