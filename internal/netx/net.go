// Package netx holds the client-side PUT to a signed upload URL.
package netx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrObjectExists is returned when the store refuses the PUT because the
// object already exists (412 for S3 conditional writes, 409 for Azure).
var ErrObjectExists = errors.New("object already exists")

// UploadToSignedURL sends data to url with the method and headers the
// credential prescribes. Any non-2xx reply is an error carrying up to 1 KiB
// of the response body.
func UploadToSignedURL(ctx context.Context, hc *http.Client, method, url string, headers map[string]string, data []byte) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	if method == "" {
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s", ErrObjectExists, resp.Status)
		}
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
