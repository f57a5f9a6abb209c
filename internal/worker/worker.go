package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/revelry-events/backend/internal/trackinglinks"
	"github.com/revelry-events/backend/pkg/queue"
)

// ClickProcessor processes tracking-link click jobs: persist the click
// row and bump the link counter.
type ClickProcessor struct {
	links  *trackinglinks.Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewClickProcessor creates a click processor.
func NewClickProcessor(links *trackinglinks.Repository, q *queue.Queue, logger *zap.Logger) *ClickProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickProcessor{links: links, queue: q, logger: logger}
}

// Process executes one click job.
func (p *ClickProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeLinkClick {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ClickPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.links.RecordClick(ctx, payload); err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	p.logger.Debug("click recorded", zap.String("link_id", payload.LinkID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ClickProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("click worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
