// Package saga runs the upload-and-verify saga: validate the payload,
// download the stored object, fingerprint it, forward the stamped payload to
// the analysis backend and delete the object if any step after the download
// began fails.
package saga

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
	"github.com/dmitrijs2005/refgate/internal/server/dispatch"
	"github.com/dmitrijs2005/refgate/internal/server/integrity"
	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/server/storage"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

// Dispatcher forwards a hash-stamped payload to the analysis backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, endpointBase string, full *validation.Payload) (*dispatch.Response, error)
}

type Orchestrator struct {
	cfg       *config.Config
	validator *validation.Validator
	store     storage.Gateway
	backend   Dispatcher
	ledger    jobs.Repository
	log       logging.Logger
}

// New wires an orchestrator. A nil ledger disables attempt recording.
func New(cfg *config.Config, store storage.Gateway, backend Dispatcher, ledger jobs.Repository, l logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		validator: validation.New(store.Provider()),
		store:     store,
		backend:   backend,
		ledger:    ledger,
		log:       l.With("module", "saga"),
	}
}

// StartAnalysis runs the saga for a raw client body.
func (o *Orchestrator) StartAnalysis(ctx context.Context, body []byte) (res *Result) {
	a := o.newAttempt()
	defer a.recover(ctx, &res)

	if r := a.checkConfig(ctx); r != nil {
		return r
	}

	p, err := o.validator.DecodeBase(body)
	if err != nil {
		return a.reject(ctx, err)
	}

	return a.run(ctx, p)
}

// Run executes the saga for a payload built by the server itself, such as
// after a server-performed upload. p is validated again and never mutated.
func (o *Orchestrator) Run(ctx context.Context, p *validation.Payload) (res *Result) {
	a := o.newAttempt()
	defer a.recover(ctx, &res)

	if r := a.checkConfig(ctx); r != nil {
		return r
	}

	base := p.Clone()
	base.Integrity = nil

	// The object was written before Run, so it is owned even when the
	// payload is rejected.
	a.payload = base
	a.own(ctx, base.Storage)

	if err := o.validator.CheckBase(base); err != nil {
		return a.reject(ctx, err)
	}

	return a.run(ctx, base)
}

// attempt carries the mutable state of a single saga execution.
type attempt struct {
	o *Orchestrator

	state         State
	failedStage   State
	payload       *validation.Payload
	target        *validation.Storage
	digest        string
	backendStatus int

	started        bool
	compensateOnce sync.Once
	compensated    bool
}

// own marks s as the object to compensate and opens the ledger entry.
func (a *attempt) own(ctx context.Context, s validation.Storage) {
	if a.target == nil {
		a.target = &s
	}
	if !a.started {
		a.started = true
		a.o.recordStart(ctx, a.payload)
	}
}

func (o *Orchestrator) newAttempt() *attempt {
	return &attempt{o: o, state: StateValidating}
}

func (a *attempt) enter(ctx context.Context, s State) {
	a.state = s
	a.o.log.Info(ctx, "saga stage", "request_id", a.requestID(), "state", s)
}

func (a *attempt) requestID() string {
	if a.payload == nil {
		return ""
	}
	return a.payload.RequestID
}

func (a *attempt) checkConfig(ctx context.Context) *Result {
	if err := a.o.cfg.CheckRuntime(); err != nil {
		a.o.log.Error(ctx, "runtime configuration invalid", "error", err)
		return a.fail(ctx, http.StatusInternalServerError, common.CodeServerMisconfigured, common.MessageUnexpected, nil)
	}
	return nil
}

// reject maps a decoding or validation error to a 400. A client payload
// owns no object at this point; a server-built one does and is compensated.
func (a *attempt) reject(ctx context.Context, err error) *Result {
	if errors.Is(err, common.ErrMalformedJSON) {
		return a.fail(ctx, http.StatusBadRequest, common.CodeInvalidJSON, common.MessageInvalidJSON, nil)
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		r := a.fail(ctx, http.StatusBadRequest, common.CodeValidationFailed, common.MessageInvalidRequest, nil)
		r.Body.Issues = verr.Issues
		return r
	}

	a.o.log.Error(ctx, "unexpected decode error", "error", err)
	return a.fail(ctx, http.StatusInternalServerError, common.CodeInternalError, common.MessageUnexpected, nil)
}

func (a *attempt) run(ctx context.Context, p *validation.Payload) *Result {
	a.payload = p

	// The path is client supplied; a foreign bucket is never touched.
	if p.Storage.Bucket != a.o.cfg.Bucket {
		a.o.log.Warn(ctx, "bucket mismatch", "request_id", p.RequestID, "bucket", p.Storage.Bucket)
		return a.fail(ctx, http.StatusBadRequest, common.CodeInvalidBucket, common.MessageInvalidBucket, nil)
	}

	a.own(ctx, p.Storage)
	target := *a.target

	a.enter(ctx, StateDownloading)
	data, err := a.o.download(ctx, p.Storage)
	if err != nil {
		a.o.log.Warn(ctx, "download failed", "request_id", p.RequestID, "path", p.Storage.Path, "error", err)
		return a.fail(ctx, http.StatusBadGateway, common.CodeStorageDownloadFailed, common.MessageDownloadFailed, nil)
	}

	a.enter(ctx, StateVerifying)
	a.digest = integrity.ComputeDigest(data)
	full := integrity.Stamp(p, a.digest)
	if err := a.o.validator.CheckFull(full); err != nil {
		a.o.log.Error(ctx, "stamped payload rejected", "request_id", p.RequestID, "error", err)
		return a.fail(ctx, http.StatusInternalServerError, common.CodeIntegrityFailed, common.MessageUnexpected, nil)
	}

	a.enter(ctx, StateDispatching)
	resp, err := a.o.backend.Dispatch(ctx, a.o.cfg.BackendURL, full)
	if err != nil {
		a.o.log.Warn(ctx, "backend unreachable", "request_id", p.RequestID, "error", err)
		return a.fail(ctx, http.StatusBadGateway, common.CodeBackendUnreachable, common.MessageBackendFailed, nil)
	}
	a.backendStatus = resp.Status
	if err := resp.Err(); err != nil {
		a.o.log.Warn(ctx, "backend rejected payload", "request_id", p.RequestID, "error", err)
		return a.fail(ctx, backendFailureStatus(resp.Status), common.CodeBackendFailed, common.MessageBackendFailed, resp.Body)
	}

	a.enter(ctx, StateCompleted)
	a.o.recordFinish(ctx, p.RequestID, jobs.Outcome{
		Status:        jobs.StatusCompleted,
		BackendStatus: a.backendStatus,
		SHA256:        a.digest,
	})

	return &Result{
		Status: http.StatusOK,
		Body: Envelope{
			OK:        true,
			Success:   true,
			Message:   common.MessageAnalysisStarted,
			RequestID: p.RequestID,
			Storage:   &target,
			Backend:   resp.Body,
		},
		State: StateCompleted,
	}
}

// fail compensates when the object location is trusted, records the outcome
// and builds the error result.
func (a *attempt) fail(ctx context.Context, status int, code, msg string, backend []byte) *Result {
	stage := a.state
	if stage == StateFailed {
		stage = a.failedStage
	}
	a.failedStage = stage
	a.state = StateFailed
	a.compensate(ctx)

	if a.started {
		a.o.recordFinish(ctx, a.requestID(), jobs.Outcome{
			Status:        jobs.StatusFailed,
			FailedStage:   string(stage),
			Code:          code,
			BackendStatus: a.backendStatus,
			SHA256:        a.digest,
			Compensated:   a.compensated,
		})
	}

	a.o.log.Info(ctx, "saga failed", "request_id", a.requestID(), "stage", stage, "code", code, "status", status)

	return &Result{
		Status: status,
		Body: Envelope{
			Message:   msg,
			Code:      code,
			RequestID: a.requestID(),
			Storage:   a.target,
			Backend:   backend,
		},
		State:       StateFailed,
		FailedStage: stage,
		Compensated: a.compensated,
	}
}

// compensate deletes the uploaded object at most once. It runs on a context
// detached from the caller so a disconnected client still gets cleaned up.
func (a *attempt) compensate(ctx context.Context) {
	if a.target == nil {
		return
	}
	a.compensateOnce.Do(func() {
		cctx := context.WithoutCancel(ctx)
		if t := a.o.cfg.CleanupTimeout; t > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(cctx, t)
			defer cancel()
		}
		a.o.store.DeleteObject(cctx, a.target.Bucket, a.target.Path)
		a.compensated = true
		a.o.log.Info(ctx, "compensation attempted", "request_id", a.requestID(), "path", a.target.Path)
	})
}

func (a *attempt) recover(ctx context.Context, res **Result) {
	p := recover()
	if p == nil {
		return
	}
	a.o.log.Error(ctx, "saga panic", "request_id", a.requestID(), "state", a.state, "panic", p, "stack", string(debug.Stack()))
	*res = a.fail(ctx, http.StatusInternalServerError, common.CodeInternalError, common.MessageUnexpected, nil)
}

func (o *Orchestrator) download(ctx context.Context, s validation.Storage) ([]byte, error) {
	if o.cfg.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.DownloadTimeout)
		defer cancel()
	}
	return o.store.DownloadBytes(ctx, s.Bucket, s.Path)
}

// backendFailureStatus mirrors backend error statuses. A failure reported
// with any other status is a gateway error.
func backendFailureStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusBadGateway
}
