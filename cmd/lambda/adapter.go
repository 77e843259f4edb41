package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dmitrijs2005/refgate/internal/logging"
)

// adapter feeds API Gateway proxy events through an http.Handler.
type adapter struct {
	handler http.Handler
	log     logging.Logger
}

func (a *adapter) handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := createHTTPRequest(ctx, req)
	if err != nil {
		a.log.Error(ctx, "create http request from proxy event", "method", req.HTTPMethod, "path", req.Path, "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"ok":false,"success":false,"message":"An unexpected server error occurred.","code":"internal_error"}`,
		}, nil
	}

	rec := newResponseRecorder()
	a.handler.ServeHTTP(rec, httpReq)

	return rec.toProxyResponse(), nil
}

func createHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	u := &url.URL{Path: req.Path}
	query := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}

	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip
	}

	return httpReq, nil
}

// responseRecorder buffers a handler response for API Gateway.
type responseRecorder struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
	written    bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: http.Header{}, statusCode: http.StatusOK}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.body.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.written {
		return
	}
	r.statusCode = statusCode
	r.written = true
}

func (r *responseRecorder) toProxyResponse() events.APIGatewayProxyResponse {
	single := make(map[string]string, len(r.header))
	for k, vs := range r.header {
		single[k] = strings.Join(vs, ", ")
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        r.statusCode,
		Headers:           single,
		MultiValueHeaders: map[string][]string(r.header),
		Body:              r.body.String(),
	}
}
