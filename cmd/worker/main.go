package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/internal/ai"
	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/events"
	"github.com/AliMahmood99/real-estate-chatbot/internal/knowledge"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/meta"
	"github.com/AliMahmood99/real-estate-chatbot/internal/notification"
	"github.com/AliMahmood99/real-estate-chatbot/internal/worker"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/db"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// Standalone queue consumer. The api binary runs the same worker in-process;
// this entrypoint exists so the pipeline can scale independently of the
// webhook surface.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	knowledgeBase := knowledge.NewBase(knowledge.NewRepository(pool), log)
	if err := withRetry(ctx, log, "knowledge base load", 3, 2*time.Second, func() error {
		return knowledgeBase.Load(ctx)
	}); err != nil {
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

	// Hot-lead events originate from this process, so the dispatcher must
	// subscribe here too.
	dispatcher := notification.NewDispatcher(metaClient, notification.NewMailer(cfg), cfg, log)
	dispatcher.Register(eventBus)

	processor := worker.NewProcessor(conversation.NewStore(pool), knowledgeBase, generator, metaClient, leadService, cfg.HistoryMaxTurns, log)

	messageWorker, err := worker.NewWorker(cfg, processor, log)
	if err != nil {
		log.Error("failed to initialize message worker", "error", err)
		panic("failed to initialize message worker: " + err.Error())
	}

	messageWorker.Run(ctx)
	log.Info("worker stopped")
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
