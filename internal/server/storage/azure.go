package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
)

type azureAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
}

// signBlobSAS produces the query string of a blob SAS; a seam for tests.
var signBlobSAS = func(v sas.BlobSignatureValues, cred *azblob.SharedKeyCredential) (string, error) {
	qp, err := v.SignWithSharedKey(cred)
	if err != nil {
		return "", err
	}
	return qp.Encode(), nil
}

// AzureGateway stores objects in Azure Blob Storage; the configured bucket
// is the container name. Signed uploads carry a create-only SAS, which the
// service refuses for an existing blob.
type AzureGateway struct {
	client     azureAPI
	cred       *azblob.SharedKeyCredential
	serviceURL string
	log        logging.Logger
	maxSize    int64
}

func NewAzureGateway(cfg *config.Config, l logging.Logger) (*AzureGateway, error) {
	if cfg.AzureAccount == "" || cfg.AzureAccountKey == "" {
		return nil, fmt.Errorf("%w: azure account and key are required", common.ErrMisconfigured)
	}
	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccount, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("build shared key credential: %w", err)
	}

	serviceURL := cfg.AzureServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AzureAccount)
	}
	if !strings.HasSuffix(serviceURL, "/") {
		serviceURL += "/"
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &AzureGateway{
		client:     client,
		cred:       cred,
		serviceURL: serviceURL,
		log:        l.With("module", "storage", "provider", common.ProviderAzure),
		maxSize:    cfg.MaxObjectSize,
	}, nil
}

func (g *AzureGateway) Provider() string {
	return common.ProviderAzure
}

func (g *AzureGateway) CreateSignedUploadURL(ctx context.Context, container, path string, opts SignOptions) (*SignedURL, error) {
	now := timeNow().UTC()
	perms := sas.BlobPermissions{Create: true}
	if opts.Overwrite {
		perms.Write = true
	}

	query, err := signBlobSAS(sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPSandHTTP,
		StartTime:     now.Add(-time.Minute),
		ExpiryTime:    now.Add(opts.Expires),
		Permissions:   perms.String(),
		ContainerName: container,
		BlobName:      path,
	}, g.cred)
	if err != nil {
		return nil, fmt.Errorf("%w: sign blob sas: %v", common.ErrUpstream, err)
	}

	headers := map[string]string{"X-Ms-Blob-Type": "BlockBlob"}
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}
	if !opts.Overwrite {
		headers["If-None-Match"] = "*"
	}

	return &SignedURL{
		URL:       g.serviceURL + escapePath(container) + "/" + escapePath(path) + "?" + query,
		Method:    "PUT",
		Headers:   headers,
		ExpiresAt: now.Add(opts.Expires),
	}, nil
}

func (g *AzureGateway) UploadBytes(ctx context.Context, container, path string, data []byte, contentType string) error {
	_, err := g.client.UploadBuffer(ctx, container, path, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: to.Ptr(azcore.ETagAny)},
		},
	})
	if err == nil {
		return nil
	}
	if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return fmt.Errorf("upload %s/%s: %w", container, path, common.ErrAlreadyExists)
	}
	return fmt.Errorf("%w: upload %s/%s: %v", common.ErrUpstream, container, path, err)
}

func (g *AzureGateway) DownloadBytes(ctx context.Context, container, path string) ([]byte, error) {
	resp, err := g.client.DownloadStream(ctx, container, path, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("download %s/%s: %w", container, path, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: download %s/%s: %v", common.ErrUpstream, container, path, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && g.maxSize > 0 && *resp.ContentLength > g.maxSize {
		return nil, fmt.Errorf("download %s/%s: %w", container, path, ErrObjectTooLarge)
	}

	data, err := readLimited(resp.Body, g.maxSize)
	if errors.Is(err, ErrObjectTooLarge) {
		return nil, fmt.Errorf("download %s/%s: %w", container, path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %v", common.ErrUpstream, container, path, err)
	}
	return data, nil
}

func (g *AzureGateway) DeleteObject(ctx context.Context, container, path string) {
	if _, err := g.client.DeleteBlob(ctx, container, path, nil); err != nil {
		g.log.Warn(ctx, "delete blob failed", "container", container, "path", path, "error", err)
		return
	}
	g.log.Info(ctx, "blob deleted", "container", container, "path", path)
}
