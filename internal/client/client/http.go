package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/netx"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

const (
	pathHealth        = "/healthz"
	pathSignedUpload  = "/api/signed-upload"
	pathAnalysisStart = "/api/analysis-start-gateway"
	pathUpload        = "/api/upload"
	pathCleanup       = "/api/cleanup-upload"
	pathAnalysis      = "/api/analysis/"

	// cap on error bodies read from the gateway
	maxReplyBody = 4 << 20
)

// HTTPClient talks to the gateway over its JSON API. JSON calls use the
// request timeout; uploads use the upload timeout.
type HTTPClient struct {
	baseURL        string
	hc             *http.Client
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	now            func() time.Time
}

func NewHTTPClient(baseURL string, requestTimeout, uploadTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		hc:             &http.Client{},
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
		now:            time.Now,
	}
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, pathHealth, nil, nil)
}

func (c *HTTPClient) RequestUploadCredential(ctx context.Context, fileName, contentType string) (*Credential, error) {
	var cred Credential
	req := validation.UploadRequest{FileName: fileName, ContentType: contentType}
	if err := c.doJSON(ctx, http.MethodPost, pathSignedUpload, req, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// PutObject uploads data straight to the store with the credential's method
// and headers.
func (c *HTTPClient) PutObject(ctx context.Context, cred *Credential, data []byte) error {
	if cred.Expired(c.now()) {
		return ErrCredentialExpired
	}
	ctx, cancel := c.withTimeout(ctx, c.uploadTimeout)
	defer cancel()
	return netx.UploadToSignedURL(ctx, c.hc, cred.Method, cred.SignedURL, cred.Headers, data)
}

func (c *HTTPClient) StartAnalysis(ctx context.Context, p *validation.Payload) (*Envelope, error) {
	var env Envelope
	if err := c.doJSON(ctx, http.MethodPost, pathAnalysisStart, p, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Status: http.StatusOK, Code: env.Code, Message: env.Message, Issues: env.Issues}
	}
	return &env, nil
}

// UploadFile sends the file as multipart form data and lets the gateway
// store it and start the analysis.
func (c *HTTPClient) UploadFile(ctx context.Context, fileName, contentType string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var res UploadResult
	if err := c.do(ctx, http.MethodPost, pathUpload, mw.FormDataContentType(), &buf, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &APIError{Status: http.StatusOK, Code: res.Code, Message: res.Message, Issues: res.Issues}
	}
	return &res, nil
}

func (c *HTTPClient) Cleanup(ctx context.Context, bucket, path string) error {
	return c.doJSON(ctx, http.MethodPost, pathCleanup, validation.CleanupRequest{Bucket: bucket, Path: path}, nil)
}

func (c *HTTPClient) Analysis(ctx context.Context, requestID string) (*Analysis, error) {
	var reply struct {
		Job *Analysis `json:"job"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pathAnalysis+url.PathEscape(requestID), nil, &reply); err != nil {
		return nil, err
	}
	if reply.Job == nil {
		return nil, &APIError{Status: http.StatusOK, Code: common.CodeInternalError, Message: "empty reply"}
	}
	return reply.Job, nil
}

func (c *HTTPClient) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := c.withTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = common.MimeTypeJSON
	}
	return c.do(ctx, method, path, contentType, body, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", common.MimeTypeJSON)

	resp, err := c.hc.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBody))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env Envelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Issues = env.Issues
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
