// Package storage is the object store gateway: signed upload URLs, server
// side uploads, downloads and best-effort deletes against one bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
)

// ErrObjectTooLarge is returned by DownloadBytes when the stored object is
// bigger than the configured limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// SignOptions controls a signed upload URL.
type SignOptions struct {
	ContentType string
	Expires     time.Duration
	// Overwrite allows replacing an existing object. Credentials issued to
	// clients always leave it false.
	Overwrite bool
}

// SignedURL is a time-boxed write endpoint. Headers must be sent verbatim
// with the upload; some of them are covered by the signature.
type SignedURL struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// Gateway abstracts the object store. Every method except DeleteObject
// reports failures; DeleteObject is a compensation step and only logs.
type Gateway interface {
	// Provider returns the literal carried in storage.provider.
	Provider() string
	CreateSignedUploadURL(ctx context.Context, bucket, path string, opts SignOptions) (*SignedURL, error)
	// UploadBytes refuses to replace an existing object and reports
	// common.ErrAlreadyExists in that case.
	UploadBytes(ctx context.Context, bucket, path string, data []byte, contentType string) error
	// DownloadBytes reports common.ErrorNotFound for a missing object and
	// common.ErrUpstream for transport or store failures.
	DownloadBytes(ctx context.Context, bucket, path string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, path string)
}

// New builds the gateway for cfg.StorageProvider.
func New(ctx context.Context, cfg *config.Config, l logging.Logger) (Gateway, error) {
	switch cfg.StorageProvider {
	case common.ProviderS3, "":
		return NewS3Gateway(ctx, cfg, l)
	case common.ProviderAzure:
		return NewAzureGateway(cfg, l)
	default:
		return nil, fmt.Errorf("%w: unknown storage provider %q", common.ErrMisconfigured, cfg.StorageProvider)
	}
}

// readLimited drains r, failing once more than limit bytes arrive.
// A non-positive limit disables the check.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
