package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
	"github.com/dmitrijs2005/refgate/internal/server/credentials"
	"github.com/dmitrijs2005/refgate/internal/server/jobs"
	"github.com/dmitrijs2005/refgate/internal/server/saga"
	"github.com/dmitrijs2005/refgate/internal/server/storage"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const (
	testBucket = "documents"
	testID     = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type fakeIssuer struct {
	got  credentials.UploadRequest
	cred *credentials.UploadCredential
	err  error
}

func (f *fakeIssuer) IssueUploadCredential(ctx context.Context, req credentials.UploadRequest) (*credentials.UploadCredential, error) {
	f.got = req
	return f.cred, f.err
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	body    []byte
	payload *validation.Payload
	res     *saga.Result
}

func (f *fakeAnalyzer) StartAnalysis(ctx context.Context, body []byte) *saga.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = body
	return f.res
}

func (f *fakeAnalyzer) Run(ctx context.Context, p *validation.Payload) *saga.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payload = p
	return f.res
}

type fakeStore struct {
	mu        sync.Mutex
	uploadErr error
	uploads   map[string][]byte
	deletes   []string
}

func newFakeStore() *fakeStore { return &fakeStore{uploads: map[string][]byte{}} }

func (f *fakeStore) Provider() string { return common.ProviderS3 }

func (f *fakeStore) CreateSignedUploadURL(context.Context, string, string, storage.SignOptions) (*storage.SignedURL, error) {
	return nil, errors.New("not used")
}

func (f *fakeStore) UploadBytes(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads[bucket+"/"+path] = data
	return nil
}

func (f *fakeStore) DownloadBytes(ctx context.Context, bucket, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.uploads[bucket+"/"+path]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return data, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, bucket, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, bucket+"/"+path)
}

type testEnv struct {
	cfg      *config.Config
	issuer   *fakeIssuer
	analyzer *fakeAnalyzer
	store    *fakeStore
	ledger   *jobs.InMemoryRepository
}

func newTestEnv() *testEnv {
	return &testEnv{
		cfg: &config.Config{
			Bucket:         testBucket,
			BackendURL:     "http://backend.local",
			CleanupTimeout: time.Second,
			MaxObjectSize:  common.MaxFileSize,
			AllowedOrigins: []string{"http://localhost:3000", "*.refgate.dev"},
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		issuer:   &fakeIssuer{},
		analyzer: &fakeAnalyzer{},
		store:    newFakeStore(),
		ledger:   jobs.NewInMemoryRepository(),
	}
}

func (e *testEnv) router() *Handler {
	return NewHandler(e.cfg, e.issuer, e.analyzer, e.store, e.ledger, logging.Nop{})
}
