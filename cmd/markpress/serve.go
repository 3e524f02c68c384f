// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"markpress/internal/ai"
	"markpress/internal/cache"
	"markpress/internal/chat"
	"markpress/internal/content"
	"markpress/internal/database"
	"markpress/internal/engine"
	"markpress/internal/handlers"
	"markpress/internal/images"
	"markpress/internal/middleware"
	"markpress/internal/render"
	"markpress/internal/router"
	"markpress/internal/scrape"
	"markpress/internal/session"
	"markpress/internal/storage"
	"markpress/internal/store"
	"markpress/internal/theme"
	"markpress/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// Connect to PostgreSQL and run pending migrations.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		return err
	}
	if cfg.IsDev() {
		if _, err := database.Seed(ctx, db); err != nil {
			return err
		}
	}

	// Valkey backs sessions and the page cache. Without it sessions live in
	// the cookie only and pages are rendered on every request.
	valkey, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, page cache and server-side sessions disabled", "error", err)
	} else {
		defer valkey.Close()
	}

	secure := !cfg.IsDev()
	sessions := session.NewStore(valkey, secure)
	pageCache := cache.NewPageCache(valkey, cfg.PageCacheTTL)

	// S3 storage is optional; without it image generation reports that it
	// is not configured and /media answers 404.
	blobs, err := storage.New(storage.Options{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBucket:  cfg.S3BucketPublic,
		PrivateBucket: cfg.S3BucketPrivate,
		PublicURL:     cfg.S3PublicURL,
	})
	if err != nil {
		return err
	}
	if blobs == nil {
		slog.Warn("s3 storage not configured, image generation and media disabled")
	} else if err := blobs.Check(ctx); err != nil {
		slog.Warn("s3 storage unreachable", "endpoint", cfg.S3Endpoint, "error", err)
	} else {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "public_bucket", cfg.S3BucketPublic)
	}

	renderer, err := render.New(cfg.SiteTitle)
	if err != nil {
		return fmt.Errorf("initialize templates: %w", err)
	}

	// Stores.
	draftStore := store.NewDraftStore(db)
	chatStore := store.NewChatStore(db)
	imageStore := store.NewImageStore(db)
	uploadStore := store.NewUploadStore(db)

	// Content library: posts and docs from disk plus published drafts.
	library := content.New(contentFS(), draftStore, slog.Default())
	if err := library.Reload(ctx); err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	eng := engine.New(nil)
	if blobs != nil {
		eng.SetMedia(blobs)
	}

	registry := ai.NewRegistry(ai.Options{
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		GeminiBaseURL:    cfg.GeminiBaseURL,
	})
	for _, p := range ai.Providers {
		slog.Info("ai provider", "provider", p, "configured", registry.Configured(p))
	}

	chatCfg := chat.Config{
		Store:   chatStore,
		Clients: registry,
		Scraper: scrape.New(cfg.FirecrawlBaseURL, nil),
		Prompt:  chat.Prompt{Whole: cfg.SystemPrompt, Parts: cfg.PromptParts()},
	}
	var mediaURLs handlers.URLResolver
	var imageBlobs images.Blobs
	var uploadBlobs handlers.UploadBlobs
	if blobs != nil {
		chatCfg.URLs = blobs
		mediaURLs = blobs
		imageBlobs = blobs
		uploadBlobs = blobs
	}
	chatService := chat.NewService(chatCfg)
	generator := images.New(registry, imageBlobs, imageStore, slog.Default())

	public, err := handlers.NewPublic(renderer, library, eng, pageCache, sessions, secure)
	if err != nil {
		return err
	}

	defTheme, err := theme.Parse(cfg.DefaultTheme)
	if err != nil {
		slog.Warn("invalid default_theme, using built-in default", "value", cfg.DefaultTheme)
		defTheme = theme.Default
	}

	opts := router.Options{
		Secure:       secure,
		DefaultTheme: defTheme,
		CORSOrigins:  cfg.CORSOrigins,
		Static:       web.Static(),
	}
	if cfg.RateLimit > 0 {
		opts.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	}

	r := router.New(sessions, opts, router.Handlers{
		Public:  public,
		Editor:  handlers.NewEditor(renderer, eng, draftStore, public),
		Chat:    handlers.NewChat(renderer, chatService, registry, library),
		Images:  handlers.NewImages(generator),
		Uploads: handlers.NewUploads(uploadBlobs, uploadStore),
		Media:   handlers.NewMedia(mediaURLs, uploadStore),
	})

	// WriteTimeout must cover a chat turn (60s vendor timeout plus link
	// scraping) and an image generation (120s).
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// contentFS returns the configured content directory, or the embedded
// sample content when none is set.
func contentFS() fs.FS {
	if cfg.ContentDir != "" {
		slog.Info("serving content from disk", "dir", cfg.ContentDir)
		return os.DirFS(cfg.ContentDir)
	}
	slog.Info("serving embedded sample content")
	return web.Content()
}
