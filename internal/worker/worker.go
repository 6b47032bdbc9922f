package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pulsecast/backend/internal/reconcile"
	"github.com/pulsecast/backend/internal/streams"
	"github.com/pulsecast/backend/pkg/queue"
)

// Processor consumes reconcile jobs: load the stream record, run it through
// the reconciler, let the reconciler issue any corrective write.
type Processor struct {
	streams    *streams.Repository
	reconciler *reconcile.Reconciler
	queue      *queue.Queue
	logger     *zap.Logger
}

// NewProcessor creates a reconcile job processor.
func NewProcessor(repo *streams.Repository, rec *reconcile.Reconciler, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{streams: repo, reconciler: rec, queue: q, logger: logger}
}

// Process executes one reconcile job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReconcile {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReconcilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	stream, err := p.streams.GetByID(ctx, payload.StreamID)
	if err != nil {
		return fmt.Errorf("load stream: %w", err)
	}
	if stream == nil {
		// Deleted since enqueue; nothing to reconcile.
		p.logger.Debug("stream gone, dropping job",
			zap.String("job_id", job.ID),
			zap.String("stream_id", payload.StreamID.String()))
		return nil
	}

	status, _ := p.reconciler.Reconcile(ctx, stream)
	p.logger.Debug("stream reconciled",
		zap.String("stream_id", stream.ID.String()),
		zap.String("reason", payload.Reason),
		zap.String("declared", string(stream.Status)),
		zap.String("effective", string(status)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reconcile worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
		}
	}
}

// Sweeper periodically enqueues reconcile jobs for every stream still bound
// to a platform stream. Catches drift from webhooks that never arrived.
type Sweeper struct {
	streams  *streams.Repository
	queue    *queue.Queue
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a periodic reconcile sweeper.
func NewSweeper(repo *streams.Repository, q *queue.Queue, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{streams: repo, queue: q, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until ctx is done. The first sweep
// happens immediately so a restart converges without waiting a full interval.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	list, err := s.streams.ListReconcilable(ctx)
	if err != nil {
		s.logger.Warn("sweep list failed", zap.Error(err))
		return
	}
	for i := range list {
		payload := queue.ReconcilePayload{StreamID: list[i].ID, Reason: "sweep"}
		if err := s.queue.EnqueueReconcile(ctx, payload); err != nil {
			s.logger.Warn("sweep enqueue failed", zap.Error(err), zap.String("stream_id", list[i].ID.String()))
		}
	}
	if len(list) > 0 {
		s.logger.Debug("sweep enqueued", zap.Int("streams", len(list)))
	}
}
