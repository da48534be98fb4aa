package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"belote-lite/apps/server/internal/auth"
	"belote-lite/apps/server/internal/config"
	"belote-lite/apps/server/internal/gateway"
	"belote-lite/apps/server/internal/ledger"
	"belote-lite/apps/server/internal/lobby"
	"belote-lite/belote"
	"belote-lite/belote/npc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	authService, err := auth.NewService(auth.Options{
		Mode:        cfg.StoreMode,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		SessionTTL:  cfg.SessionTTL,
	})
	if err != nil {
		return err
	}
	defer authService.Close()

	ledgerService, err := ledger.NewService(ledger.Options{
		Mode:        cfg.StoreMode,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return err
	}
	defer ledgerService.Close()

	personas, err := npc.LoadRegistry(cfg.BotPersonasPath)
	if err != nil {
		return err
	}
	logger.Info("bot personas loaded", zap.Int("count", personas.Count()), zap.String("path", cfg.BotPersonasPath))

	engine := belote.DefaultConfig()
	engine.DisconnectTimeout = cfg.DisconnectTimeout
	engine.StallThreshold = cfg.StallThreshold
	engine.TargetScore = cfg.TargetScore
	engine.RatingK = cfg.RatingK
	engine.Recorder = ledgerService
	engine.Personas = personas

	rooms := lobby.NewRegistry(engine, logger)
	defer rooms.Close()

	gw := gateway.New(gateway.Options{
		Rooms:          rooms,
		Auth:           authService,
		Ratings:        ledgerService,
		DefaultRating:  engine.DefaultRating,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	authHTTP := auth.NewHTTPHandler(authService, ledgerService, cfg.SessionTTL, logger)
	historyHTTP := ledger.NewHTTPHandler(ledgerService, authHTTP.RequireSession, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", gw.HandleWebSocket)
	r.Get("/api/rooms", rooms.RoomsHandler(func(req *http.Request) string {
		if account, ok := authService.ResolveSession(auth.TokenFromRequest(req)); ok {
			return auth.PlayerID(account.ID)
		}
		if guest := strings.TrimSpace(req.URL.Query().Get("userId")); guest != "" {
			return auth.GuestID(guest)
		}
		return ""
	}))
	authHTTP.RegisterRoutes(r)
	historyHTTP.RegisterRoutes(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go gw.Run(ctx)
	go rooms.RunWatchdog(ctx, cfg.WatchdogInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.StoreMode),
			zap.Int("target_score", engine.TargetScore),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
