package saga

import (
	"context"
	"time"

	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const ledgerTimeout = 5 * time.Second

// Ledger writes are best effort: failures and panics are logged and never
// change the saga outcome.

func (o *Orchestrator) recordStart(ctx context.Context, p *validation.Payload) {
	o.record(ctx, p.RequestID, "start", func(ctx context.Context) error {
		return o.ledger.Start(ctx, &jobs.Job{
			RequestID:  p.RequestID,
			Provider:   p.Storage.Provider,
			Bucket:     p.Storage.Bucket,
			Path:       p.Storage.Path,
			FileName:   p.Document.FileName,
			SourceType: p.Document.SourceType,
		})
	})
}

func (o *Orchestrator) recordFinish(ctx context.Context, requestID string, out jobs.Outcome) {
	o.record(ctx, requestID, "finish", func(ctx context.Context) error {
		return o.ledger.Finish(ctx, requestID, out)
	})
}

func (o *Orchestrator) record(ctx context.Context, requestID, op string, fn func(ctx context.Context) error) {
	if o.ledger == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			o.log.Error(ctx, "ledger panic", "request_id", requestID, "op", op, "panic", p)
		}
	}()

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	if err := fn(lctx); err != nil {
		o.log.Warn(ctx, "ledger write failed", "request_id", requestID, "op", op, "error", err)
	}
}
