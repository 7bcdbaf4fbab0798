package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lazycare/internal/config"
	"lazycare/internal/history"
	"lazycare/internal/httpapi"
	"lazycare/internal/profile"
)

func runServe(ctx context.Context, cfg config.Config) error {
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := loadService(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("model load failed")
		return err
	}
	defer svc.Close()

	store, err := history.Open(ctx, history.Options{Backend: cfg.History.Backend, RedisURL: cfg.History.RedisURL, Prefix: cfg.History.Prefix})
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	var users *profile.Service
	ustore, err := profile.Open(ctx, profile.Options{Backend: cfg.Users.Backend, RedisURL: cfg.Users.RedisURL, Prefix: cfg.Users.Prefix})
	if err != nil {
		return err
	}
	if ustore != nil {
		users = profile.NewService(ustore)
		defer users.Close()
	}

	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(cfg.Log.Level)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	httpapi.SetGenerateTimeoutSeconds(cfg.Server.GenerateTimeoutSeconds)
	c := cfg.Server.CORS
	httpapi.SetCORSOptions(c.Enabled, c.AllowedOrigins, c.AllowedMethods, c.AllowedHeaders)

	mux := httpapi.NewMux(svc, httpapi.Options{ChatRoute: cfg.Chat.Route, Persona: cfg.Chat.Persona, History: store, Users: users})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("chat_route", cfg.Chat.Route).Str("history", cfg.History.Backend).Str("users", cfg.Users.Backend).Msg("lazycare listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("lazycare stopped")
	return nil
}
