// Package dispatch forwards hash-stamped payloads to the analysis backend
// and normalizes what comes back.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
	"github.com/dmitrijs2005/refgate/internal/logging"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

// maxResponseBody caps how much of a backend reply is kept.
const maxResponseBody = 1 << 20

// Response is the normalized backend reply. Body is always a JSON value:
// the decoded reply, a JSON string holding undecodable text, or null.
type Response struct {
	Status int
	Body   json.RawMessage
	// Failed is set for a non-2xx status or a body reporting ok/success false.
	Failed bool
}

// Client posts to {endpointBase}/api/analysis/start. It never retries.
type Client struct {
	http    *http.Client
	timeout time.Duration
	log     logging.Logger
}

// NewClient wraps hc (http.DefaultClient when nil). timeout bounds each
// Dispatch call; zero leaves it to ctx.
func NewClient(hc *http.Client, timeout time.Duration, l logging.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, timeout: timeout, log: l.With("module", "dispatch")}
}

// Dispatch sends full to the backend. A transport failure returns an error
// matching common.ErrUpstream; any HTTP reply, failed or not, is returned as
// a Response.
func (c *Client) Dispatch(ctx context.Context, endpointBase string, full *validation.Payload) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	url := strings.TrimRight(endpointBase, "/") + common.AnalysisStartRoute
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Content-Type", common.MimeTypeJSON)
	req.Header.Set("Accept", common.MimeTypeJSON)
	req.Header.Set("X-Request-ID", full.RequestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: backend request: %v", common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read backend response: %v", common.ErrUpstream, err)
	}

	out := Normalize(resp.StatusCode, raw)
	c.log.Info(ctx, "backend replied", "request_id", full.RequestID, "status", resp.StatusCode, "failed", out.Failed)
	return out, nil
}

// Err returns an error matching common.ErrBackendRejected for a failed
// reply and nil otherwise.
func (r *Response) Err() error {
	if !r.Failed {
		return nil
	}
	return fmt.Errorf("%w: status %d", common.ErrBackendRejected, r.Status)
}

// Normalize turns a raw reply into a Response.
func Normalize(status int, raw []byte) *Response {
	out := &Response{Status: status, Failed: status < 200 || status > 299}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		out.Body = json.RawMessage("null")
	case json.Valid(trimmed):
		out.Body = json.RawMessage(trimmed)
		if reportsFailure(trimmed) {
			out.Failed = true
		}
	default:
		text, _ := json.Marshal(string(raw))
		out.Body = json.RawMessage(text)
	}
	return out
}

func reportsFailure(body []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false
	}
	for _, key := range []string{"ok", "success"} {
		if v, ok := obj[key]; ok && string(bytes.TrimSpace(v)) == "false" {
			return true
		}
	}
	return false
}
