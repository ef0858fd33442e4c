package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/AliMahmood99/real-estate-chatbot/internal/admin"
	"github.com/AliMahmood99/real-estate-chatbot/internal/ai"
	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/events"
	apphttp "github.com/AliMahmood99/real-estate-chatbot/internal/http"
	"github.com/AliMahmood99/real-estate-chatbot/internal/http/router"
	"github.com/AliMahmood99/real-estate-chatbot/internal/knowledge"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/meta"
	"github.com/AliMahmood99/real-estate-chatbot/internal/notification"
	"github.com/AliMahmood99/real-estate-chatbot/internal/webhook"
	"github.com/AliMahmood99/real-estate-chatbot/internal/worker"
	"github.com/AliMahmood99/real-estate-chatbot/migrations"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/db"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
	"github.com/AliMahmood99/real-estate-chatbot/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Knowledge base: loaded once at startup, reloadable via the admin API.
	knowledgeBase := knowledge.NewBase(knowledge.NewRepository(pool), log)
	if err := withRetry(ctx, log, "knowledge base load", 3, 2*time.Second, func() error {
		return knowledgeBase.Load(ctx)
	}); err != nil {
		// Served with grounding fallback until the first successful reload.
		log.Error("failed to load knowledge base", "error", err)
	}

	policy, err := lead.LoadPolicy(cfg.ClassifyPolicyFile)
	if err != nil {
		log.Error("failed to load classification policy", "error", err)
		panic("failed to load classification policy: " + err.Error())
	}
	leadService := lead.NewService(lead.NewRepository(pool), lead.NewClassifier(policy), eventBus, log)

	generator, err := ai.NewGenerator(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize reply generator", "error", err)
		panic("failed to initialize reply generator: " + err.Error())
	}

	metaClient := meta.NewClient(cfg, log)

	// Notification dispatcher subscribes to domain events (not HTTP-facing)
	dispatcher := notification.NewDispatcher(metaClient, notification.NewMailer(cfg), cfg, log)
	dispatcher.Register(eventBus)

	conversationStore := conversation.NewStore(pool)
	processor := worker.NewProcessor(conversationStore, knowledgeBase, generator, metaClient, leadService, cfg.HistoryMaxTurns, log)

	queueClient, err := worker.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer queueClient.Close()

	messageWorker, err := worker.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize message worker", "error", err)
		panic("failed to initialize message worker: " + err.Error())
	}

	webhookModule := webhook.NewModule(pool, queueClient, cfg, log)
	adminModule := admin.NewModule(leadService, conversationStore, knowledgeBase, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
			adminModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// The queue consumer runs in-process alongside the HTTP server; a
	// standalone copy can be started with cmd/worker when the pipeline
	// needs to scale independently.
	g.Go(func() error {
		messageWorker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
