package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordduel/internal/api"
	"wordduel/internal/broadcast"
	"wordduel/internal/config"
	"wordduel/internal/coordinator"
	"wordduel/internal/directory"
	"wordduel/internal/game"
	"wordduel/internal/room"
	"wordduel/internal/sse"
	"wordduel/internal/words"
	"wordduel/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	wordList, err := words.Load(cfg.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.WordsFile).Msg("failed to load word list")
	}
	log.Info().Int("words", wordList.Len()).Msg("word list loaded")

	// Initialize layers
	hub := broadcast.NewHub()
	users := directory.New()
	coord := coordinator.New(room.NewRegistry(), game.NewEngine(), users, wordList, hub)

	apiHandler := api.NewHandler(coord, users, hub)
	wsHandler := ws.NewHandler(hub, ws.Config{
		PingInterval:   cfg.WSPingInterval,
		WriteTimeout:   cfg.WSWriteTimeout,
		SendBuffer:     cfg.WSSendBuffer,
		RateLimit:      rate.Limit(cfg.WSRateLimitRPS),
		RateBurst:      cfg.WSRateLimitBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	sseHandler := sse.NewHandler(hub, cfg.WSSendBuffer, cfg.WSPingInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("reqId", chimw.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(api.CORSMiddleware(cfg.AllowedOrigins))

	if cfg.HTTPRateLimitRPS > 0 {
		limiter := api.NewRateLimiter(cfg.HTTPRateLimitRPS, cfg.HTTPRateLimitBurst)
		r.Use(limiter.Middleware)
		go sweepLimiters(ctx, limiter)
	}

	// Streaming routes stay outside the request timeout.
	wsHandler.RegisterRoutes(r)
	sseHandler.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		apiHandler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// Event streams end when the server is told to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg config.Config) {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func sweepLimiters(ctx context.Context, limiter *api.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(10 * time.Minute); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle rate limiters")
			}
		}
	}
}
