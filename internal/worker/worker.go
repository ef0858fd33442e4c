package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// Worker consumes queued inbound messages and drives the processor.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *Processor
	log       *logger.Logger
}

func NewWorker(cfg config.QueueConfig, processor *Processor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		processor: processor,
		log:       log,
	}
	mux.HandleFunc(TaskInboundMessage, w.handleInboundMessage)

	return w, nil
}

func (w *Worker) handleInboundMessage(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInboundMessagePayload(task)
	if err != nil {
		return err
	}

	platform, err := messaging.ParsePlatform(payload.Platform)
	if err != nil {
		return err
	}

	return w.processor.Process(ctx, messaging.InboundMessage{
		Platform:          platform,
		ExternalUserID:    payload.ExternalUserID,
		ExternalMessageID: payload.ExternalMessageID,
		Text:              payload.Text,
		ReceivedAt:        payload.ReceivedAt,
	})
}

// Run serves the queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("message worker stopped", "error", err)
	}
}
