// Package httpapi exposes the saga, credential issuance, server-performed
// uploads, cleanup and the analysis ledger over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
	"github.com/dmitrijs2005/refgate/internal/server/credentials"
	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/server/saga"
	"github.com/dmitrijs2005/refgate/internal/server/storage"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const (
	RouteSignedUpload  = "/api/signed-upload"
	RouteAnalysisStart = "/api/analysis-start-gateway"
	RouteBibliography  = "/api/bibliography-check"
	RouteUpload        = "/api/upload"
	RouteCleanup       = "/api/cleanup-upload"
	RouteAnalysis      = "/api/analysis/{requestId}"
	RouteHealth        = "/healthz"
)

const maxJSONBody = 1 << 20

type CredentialIssuer interface {
	IssueUploadCredential(ctx context.Context, req credentials.UploadRequest) (*credentials.UploadCredential, error)
}

type Analyzer interface {
	StartAnalysis(ctx context.Context, body []byte) *saga.Result
	Run(ctx context.Context, p *validation.Payload) *saga.Result
}

type Handler struct {
	cfg      *config.Config
	issuer   CredentialIssuer
	analyzer Analyzer
	store    storage.Gateway
	ledger   jobs.Repository
	log      logging.Logger
}

func NewHandler(cfg *config.Config, issuer CredentialIssuer, analyzer Analyzer, store storage.Gateway, ledger jobs.Repository, l logging.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		issuer:   issuer,
		analyzer: analyzer,
		store:    store,
		ledger:   ledger,
		log:      l.With("module", "httpapi"),
	}
}

// NewRouter mounts every route behind the common middleware stack.
func NewRouter(h *Handler) http.Handler {
	limiter := NewRateLimiter(h.cfg.RateLimitRPS, h.cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logging(h.log))
	r.Use(Recover(h.log))
	r.Use(CORS(h.cfg.AllowedOrigins))

	r.Get(RouteHealth, h.health)

	r.Group(func(limited chi.Router) {
		limited.Use(limiter.PerIP)
		limited.Post(RouteSignedUpload, h.signedUpload)
		limited.Post(RouteUpload, h.upload)
	})

	r.Post(RouteAnalysisStart, h.startAnalysis)
	r.With(Deprecated(RouteAnalysisStart)).Post(RouteBibliography, h.startAnalysis)
	r.Post(RouteCleanup, h.cleanup)
	r.Get(RouteAnalysis, h.analysis)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
