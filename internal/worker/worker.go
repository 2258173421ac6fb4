package worker

import (
	"context"
	"errors"
	"time"

	"hydrogen-admin/internal/events"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/stream"
)

// Processor handles one admin command.
type Processor interface {
	Process(ctx context.Context, cmd events.Command) error
}

// Worker consumes admin commands and runs them one at a time.
type Worker struct {
	logger    *logger.Logger
	source    stream.Source
	processor Processor
	timeout   time.Duration
	backoff   time.Duration
}

func New(source stream.Source, processor Processor, logger *logger.Logger) *Worker {
	return &Worker{
		logger:    logger,
		source:    source,
		processor: processor,
		timeout:   30 * time.Minute,
		backoff:   time.Second,
	}
}

// Start blocks until ctx is cancelled or the source is closed. Read
// failures other than the 10s poll timeout are retried after a pause.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started, listening for commands...")

	for {
		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		cmd, err := w.source.Read(readCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			var decodeErr *stream.DecodeError
			switch {
			case errors.Is(err, stream.ErrSourceClosed):
				w.logger.Info("Command source closed, worker exiting")
				return
			case errors.Is(err, context.DeadlineExceeded):
			case errors.As(err, &decodeErr):
				w.logger.Warn("Skipping command: %v", err)
			default:
				w.logger.Error("Failed to read command: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.backoff):
				}
			}
			continue
		}
		if !cmd.Name.IsCommand() {
			w.logger.Debug("Ignoring %s on the command topic", cmd.Name)
			continue
		}

		w.logger.Debug("Received %s for session %s", cmd.Name, cmd.Session)

		jobCtx, cancelJob := context.WithTimeout(ctx, w.timeout)
		err = w.processor.Process(jobCtx, cmd)
		cancelJob()
		if err != nil {
			w.logger.Error("Failed to process %s: %v", cmd.Name, err)
			continue
		}

		w.logger.Debug("Command %s processed successfully", cmd.Name)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.source.Close()
}
