package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/server/config"
)

type fakeAzure struct {
	uploadOpts *azblob.UploadBufferOptions
	uploadErr  error
	body       string
	length     *int64
	downErr    error
	deleted    []string
	delErr     error
}

func (f *fakeAzure) UploadBuffer(ctx context.Context, c, b string, buf []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.uploadOpts = o
	return azblob.UploadBufferResponse{}, f.uploadErr
}

func (f *fakeAzure) DownloadStream(ctx context.Context, c, b string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error) {
	var resp azblob.DownloadStreamResponse
	if f.downErr != nil {
		return resp, f.downErr
	}
	resp.Body = io.NopCloser(strings.NewReader(f.body))
	resp.ContentLength = f.length
	return resp, nil
}

func (f *fakeAzure) DeleteBlob(ctx context.Context, c, b string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error) {
	f.deleted = append(f.deleted, c+"/"+b)
	return azblob.DeleteBlobResponse{}, f.delErr
}

func responseError(code bloberror.Code, status int) error {
	return &azcore.ResponseError{ErrorCode: string(code), StatusCode: status}
}

func newTestAzure(f *fakeAzure, maxSize int64) *AzureGateway {
	return &AzureGateway{client: f, serviceURL: "http://127.0.0.1:10000/devstoreaccount1/", log: logging.Nop{}, maxSize: maxSize}
}

func TestNewAzureGateway(t *testing.T) {
	_, err := NewAzureGateway(&config.Config{}, logging.Nop{})
	assert.ErrorIs(t, err, common.ErrMisconfigured)

	g, err := NewAzureGateway(&config.Config{AzureAccount: "acct", AzureAccountKey: "a2V5"}, logging.Nop{})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net/", g.serviceURL)
	assert.Equal(t, common.ProviderAzure, g.Provider())

	g, err = NewAzureGateway(&config.Config{AzureAccount: "acct", AzureAccountKey: "a2V5", AzureServiceURL: "http://azurite:10000/acct"}, logging.Nop{})
	require.NoError(t, err)
	assert.Equal(t, "http://azurite:10000/acct/", g.serviceURL)
}

func TestAzureGateway_CreateSignedUploadURL(t *testing.T) {
	origSign := signBlobSAS
	origNow := timeNow
	t.Cleanup(func() {
		signBlobSAS = origSign
		timeNow = origNow
	})
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	timeNow = func() time.Time { return fixed }

	var got sas.BlobSignatureValues
	signBlobSAS = func(v sas.BlobSignatureValues, _ *azblob.SharedKeyCredential) (string, error) {
		got = v
		return "sig=abc&sp=c", nil
	}

	g := newTestAzure(&fakeAzure{}, 0)
	u, err := g.CreateSignedUploadURL(context.Background(), "documents", "documents/id/my refs.pdf", SignOptions{
		ContentType: common.MimeTypePDF,
		Expires:     15 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "c", got.Permissions)
	assert.Equal(t, "documents", got.ContainerName)
	assert.Equal(t, "documents/id/my refs.pdf", got.BlobName)
	assert.Equal(t, fixed.Add(15*time.Minute), got.ExpiryTime)

	parsed, err := url.Parse(u.URL)
	require.NoError(t, err)
	assert.Equal(t, "/devstoreaccount1/documents/documents/id/my refs.pdf", parsed.Path)
	assert.Equal(t, "sig=abc&sp=c", parsed.RawQuery)
	assert.Equal(t, http.MethodPut, u.Method)
	assert.Equal(t, "BlockBlob", u.Headers["X-Ms-Blob-Type"])
	assert.Equal(t, "*", u.Headers["If-None-Match"])
}

func TestAzureGateway_CreateSignedUploadURL_SignError(t *testing.T) {
	origSign := signBlobSAS
	t.Cleanup(func() { signBlobSAS = origSign })
	signBlobSAS = func(sas.BlobSignatureValues, *azblob.SharedKeyCredential) (string, error) {
		return "", errBoom{}
	}

	_, err := newTestAzure(&fakeAzure{}, 0).CreateSignedUploadURL(context.Background(), "c", "p", SignOptions{})
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestAzureGateway_UploadBytes(t *testing.T) {
	f := &fakeAzure{}
	g := newTestAzure(f, 0)

	require.NoError(t, g.UploadBytes(context.Background(), "c", "uploads/id/a.pdf", []byte("x"), common.MimeTypePDF))
	require.NotNil(t, f.uploadOpts.AccessConditions)
	assert.Equal(t, azcore.ETagAny, *f.uploadOpts.AccessConditions.ModifiedAccessConditions.IfNoneMatch)
	assert.Equal(t, common.MimeTypePDF, *f.uploadOpts.HTTPHeaders.BlobContentType)

	f.uploadErr = responseError(bloberror.BlobAlreadyExists, http.StatusConflict)
	assert.ErrorIs(t, g.UploadBytes(context.Background(), "c", "p", nil, ""), common.ErrAlreadyExists)

	f.uploadErr = errBoom{}
	assert.ErrorIs(t, g.UploadBytes(context.Background(), "c", "p", nil, ""), common.ErrUpstream)
}

func TestAzureGateway_DownloadBytes(t *testing.T) {
	data, err := newTestAzure(&fakeAzure{body: "hello"}, 10).DownloadBytes(context.Background(), "c", "p")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = newTestAzure(&fakeAzure{downErr: responseError(bloberror.BlobNotFound, http.StatusNotFound)}, 0).DownloadBytes(context.Background(), "c", "p")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = newTestAzure(&fakeAzure{downErr: errBoom{}}, 0).DownloadBytes(context.Background(), "c", "p")
	assert.ErrorIs(t, err, common.ErrUpstream)

	_, err = newTestAzure(&fakeAzure{body: "too long"}, 3).DownloadBytes(context.Background(), "c", "p")
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}

func TestAzureGateway_DeleteObject_SwallowsErrors(t *testing.T) {
	f := &fakeAzure{delErr: errBoom{}}
	newTestAzure(f, 0).DeleteObject(context.Background(), "c", "p")
	assert.Equal(t, []string{"c/p"}, f.deleted)
}
