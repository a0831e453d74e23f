package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codecanvas/codecanvas/internal/api"
	"github.com/codecanvas/codecanvas/internal/auth"
	"github.com/codecanvas/codecanvas/internal/config"
	"github.com/codecanvas/codecanvas/internal/metrics"
	"github.com/codecanvas/codecanvas/internal/project"
	"github.com/codecanvas/codecanvas/internal/runner"
	"github.com/codecanvas/codecanvas/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize the SQLite snapshot store
	store, err := project.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open snapshot store: %v", err)
	}
	defer store.Close()
	log.Printf("codecanvas: SQLite data directory: %s", cfg.DataDir)

	// Initialize JWT issuer if configured
	var issuer *auth.JWTIssuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewJWTIssuer(cfg.JWTSecret)
		log.Println("codecanvas: JWT issuer configured for the preview signal channel")
	} else {
		log.Println("codecanvas: no CODECANVAS_JWT_SECRET configured, preview signal channel runs unauthenticated")
	}

	// Remote execution client
	exec := runner.NewClient(runner.Config{
		BaseURL:      cfg.ExecURL,
		APIKey:       cfg.ExecAPIKey,
		HostHeader:   cfg.ExecHostHeader,
		LanguageID:   cfg.ExecLanguageID,
		PollInterval: cfg.ExecPollEvery,
		MaxPolls:     cfg.ExecMaxPolls,
	})
	if cfg.ExecAPIKey == "" {
		log.Println("codecanvas: no CODECANVAS_EXEC_API_KEY configured, remote runs will be rejected upstream")
	}

	// signalURL builds the WebSocket URL baked into each preview
	// generation's document. With an issuer, the URL carries a token
	// scoped to exactly this session and generation.
	signalURL := func(sessionID string, generation int64) string {
		url := fmt.Sprintf("%s/preview/%s/signals?gen=%d", cfg.PreviewWSBase, sessionID, generation)
		if issuer != nil {
			token, err := issuer.IssuePreviewToken(sessionID, generation, time.Hour)
			if err != nil {
				log.Printf("codecanvas: failed to issue preview token for %s: %v", sessionID, err)
				return url
			}
			url += "&token=" + token
		}
		return url
	}

	sessions := session.NewRegistry(session.Options{
		Debounce:  cfg.Debounce,
		Runner:    exec,
		Store:     store,
		SignalURL: signalURL,
	})
	defer sessions.Close()

	server := api.NewServer(sessions, api.ServerOpts{
		APIKey: cfg.APIKey,
		Issuer: issuer,
		Store:  store,
	})

	// Standalone metrics listener, for scraping off the API port
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Printf("codecanvas: metrics listening on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("codecanvas: starting server on %s", addr)

	go func() {
		if err := server.Start(addr); err != nil {
			log.Printf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("codecanvas: shutting down...")
	if err := server.Close(); err != nil {
		log.Printf("error closing server: %v", err)
	}
}
