package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/minishop/internal/config"
	"github.com/Skotchmaster/minishop/internal/db"
	"github.com/Skotchmaster/minishop/internal/events"
	"github.com/Skotchmaster/minishop/internal/httpserver"
	authmw "github.com/Skotchmaster/minishop/internal/middleware/auth"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/internal/search"
	"github.com/Skotchmaster/minishop/internal/service"
)

const sessionPurgeInterval = time.Hour

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, gdb, err := bootstrap(ctx, config.Config.Validate)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(gdb); err != nil {
					logger.Error("db_close_failed", "error", err)
				}
			}()

			if port > 0 {
				cfg.ServerPort = port
			}

			publisher := events.New(cfg.KafkaBrokers)
			defer func() {
				if err := publisher.Close(); err != nil {
					logger.Error("events_close_failed", "error", err)
				}
			}()

			r := repo.New(gdb)
			index := searchIndex(cfg, r, logger)

			authSvc := &service.AuthService{Repo: r, Events: publisher, Secret: cfg.SessionSecret, SessionTTL: cfg.SessionTTL}
			catalogSvc := &service.CatalogService{Repo: r, Events: publisher, Index: index}
			cartSvc := &service.CartService{Repo: r, Events: publisher}

			if _, ok := index.(*search.ESIndex); ok {
				n, err := catalogSvc.Reindex(ctx)
				if err != nil {
					logger.Warn("search_reindex_failed", "indexed", n, "error", err)
				} else {
					logger.Info("search_reindex_done", "indexed", n)
				}
			}

			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}

			e := httpserver.New(httpserver.Options{
				Logger:       logger,
				CSRF:         cfg.CSRFEnabled,
				CookieSecure: cfg.CookieSecure,
			})
			httpserver.Register(e, &httpserver.Deps{
				AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc, CookieSecure: cfg.CookieSecure},
				CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
				CartHandler:    &httpserver.CartHTTP{Svc: cartSvc},
				Session:        authmw.NewSessionAuth(authSvc, cfg.CookieSecure),
				DB:             sqlDB,
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
				Handler:           e,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      15 * time.Second,
				ReadHeaderTimeout: 3 * time.Second,
			}

			go purgeSessions(ctx, authSvc, logger)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server_listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown_failed", "error", err)
			}
			logger.Info("server_stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	return cmd
}

// searchIndex prefers Elasticsearch when configured and reachable and falls
// back to SQL search otherwise.
func searchIndex(cfg config.Config, r *repo.GormRepo, logger *slog.Logger) search.Index {
	if cfg.ESURL == "" {
		return search.SQLIndex{Repo: r}
	}
	idx, err := search.NewESIndex(search.ESConfig{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		logger.Warn("elasticsearch_unavailable", "reason", "falling back to sql search", "error", err)
		return search.SQLIndex{Repo: r}
	}
	return idx
}

func purgeSessions(ctx context.Context, svc *service.AuthService, logger *slog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.PurgeSessions(ctx)
			if err != nil {
				logger.Error("session_purge_failed", "error", err)
				continue
			}
			logger.Debug("session_purge_done", "removed", n)
		}
	}
}
