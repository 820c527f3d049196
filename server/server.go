package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"Bt1QPlayer/cache"
	"Bt1QPlayer/config"
	"Bt1QPlayer/core/bridge"
	"Bt1QPlayer/core/lyrics"
	"Bt1QPlayer/core/search"
	"Bt1QPlayer/core/session"
	"Bt1QPlayer/core/upnext"
	"Bt1QPlayer/db"
	"Bt1QPlayer/logger"
	"Bt1QPlayer/repository"
	"Bt1QPlayer/storage"
)

// Start wires the services, serves HTTP until SIGINT/SIGTERM and shuts down
// within five seconds. Redis, MySQL and MinIO are optional: when one is
// unreachable the features it backs answer 503.
func Start(cfg *config.Config, envPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := rate.NewLimiter(rate.Limit(cfg.MetadataRPS), max(cfg.MetadataRPS, 1))

	var lyricsSvc lyrics.Service = lyrics.NewClient(cfg.MetadataAPIURL, cfg.LyricsTimeout, limiter)
	var parties PartyStore

	// 连接 Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, lyrics cache and parties disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		lyricsSvc = lyrics.NewCachedService(lyricsSvc, cache.NewLyricsCache(), cfg.LyricsCacheTTL)
		parties = cache.NewPartyCache(cfg.PartyTTL)
	}

	// 连接数据库
	var history repository.HistoryRepository
	var library repository.LibraryRepository
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Warn("MySQL unavailable, history and likes disabled", logger.ErrorField(err))
	} else {
		defer db.CloseGormDB()
		if err := db.AutoMigrate(); err != nil {
			return err
		}
		history = repository.NewGormHistoryRepository(db.GormDB)
		library = repository.NewGormLibraryRepository(db.GormDB)
	}

	// 初始化 MinIO
	var shares ShareStore
	if err := storage.InitMinio(ctx, cfg); err != nil {
		logger.Warn("MinIO unavailable, shares disabled", logger.ErrorField(err))
	} else {
		shares = storage.NewShareStore(storage.GetMinioClient(), cfg.MinioBucket)
	}

	sources := []upnext.Source{upnext.NewAPIClient(cfg.MetadataAPIURL, 0, limiter)}
	if cfg.YtdlpFallback {
		sources = append(sources, upnext.NewRadioClient(cfg.UpNextLimit, ""))
	}
	continuation := upnext.NewChain(cfg.UpNextLimit, sources...)

	searcher := search.NewManager(10*time.Second,
		search.NewAPIPlugin(cfg.MetadataAPIURL, 0, limiter),
		search.NewYTMusicPlugin(),
		search.NewYouTubePlugin(),
	)

	hub := bridge.NewHub()
	go hub.Run()
	defer hub.Stop()

	deps := session.Deps{Hub: hub, Lyrics: lyricsSvc, UpNext: continuation, History: history}
	sessions := session.NewManager(deps, session.PlayerOptions(cfg), cfg.SessionIdleTTL)
	defer sessions.CloseAll()
	go sessions.RunReaper(ctx, time.Minute)

	handler, err := NewHandler(cfg, Services{
		Sessions: sessions,
		Hub:      hub,
		Search:   searcher,
		Lyrics:   lyricsSvc,
		UpNext:   continuation,
		Shares:   shares,
		Parties:  parties,
		History:  history,
		Library:  library,
	})
	if err != nil {
		return err
	}
	handler.base = ctx

	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			go watchConfig(ctx, envPath, sessions)
		}
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// watchConfig applies edits of the env file: the log level at once, playback
// defaults to sessions created afterwards.
func watchConfig(ctx context.Context, path string, sessions *session.Manager) {
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		logger.SetLevel(logger.LogLevel(cfg.LogLevel))
		sessions.SetOptions(session.PlayerOptions(cfg))
		logger.Info("Configuration reloaded", logger.String("path", path))
	}, func(err error) {
		logger.Warn("Configuration reload failed", logger.ErrorField(err))
	})
	if err != nil {
		logger.Warn("Configuration watch stopped", logger.ErrorField(err))
	}
}
