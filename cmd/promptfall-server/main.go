package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/promptfall/promptfall/internal/ai"
	"github.com/promptfall/promptfall/internal/archive"
	"github.com/promptfall/promptfall/internal/config"
	"github.com/promptfall/promptfall/internal/game"
	"github.com/promptfall/promptfall/internal/server"
	"github.com/promptfall/promptfall/internal/utils"
)

func main() {
	cfg := config.Load()

	var gen *ai.Generator
	if cfg.OpenAIKey != "" {
		gen = ai.NewGenerator(cfg.OpenAIKey)
	} else {
		log.Println("no OPENAI_API_KEY, drafts will use canned fallbacks")
	}

	// Interfaces only get assigned from non-nil generators, so the nil
	// checks downstream stay meaningful.
	var source game.ChallengeSource
	if gen != nil && cfg.AIChallenges {
		source = gen
		log.Println("sourcing challenges from the model")
	} else if cfg.ChallengesFile != "" {
		pool := utils.ReadChallengeFile(cfg.ChallengesFile)
		source = game.NewStaticSourceFromPool(pool)
		log.Printf("loaded %d challenges from %s", len(pool), cfg.ChallengesFile)
	}
	var drafts server.DraftGenerator
	if gen != nil {
		drafts = gen
	}

	var archiver game.RoundArchiver
	var history server.RoundHistory
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := archive.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Printf("round archive disabled: %v", err)
		} else {
			defer store.Close()
			archiver = store
			history = store
		}
	} else {
		log.Println("no DATABASE_URL, rounds will not be archived")
	}

	svc := game.NewService(game.NewDirectory(), source, archiver)
	srv := server.NewServer(cfg.Port, svc, drafts, history)

	go func() {
		log.Printf("promptfall server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("cannot start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
