package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/refgate/internal/logging"
)

type recordingLogger struct {
	logging.Nop
	errors []string
}

func (r *recordingLogger) Error(ctx context.Context, msg string, args ...any) {
	r.errors = append(r.errors, msg)
}

func TestHandle_RoundTripsThroughHandler(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	a := &adapter{handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Vary", "Origin")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}), log: logging.Nop{}}

	resp, err := a.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/analysis-start-gateway",
		Headers:               map[string]string{"Content-Type": "application/json"},
		QueryStringParameters: map[string]string{"trace": "1"},
		Body:                  `{"requestId":"x"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: "198.51.100.7"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	require.NotNil(t, got)
	assert.Equal(t, "/api/analysis-start-gateway", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("trace"))
	assert.Equal(t, "198.51.100.7", got.RemoteAddr)
	assert.Equal(t, `{"requestId":"x"}`, string(gotBody))
}

func TestHandle_DecodesBase64Body(t *testing.T) {
	var gotBody []byte
	a := &adapter{handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}), log: logging.Nop{}}

	raw := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}
	resp, err := a.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/upload",
		Body:            base64.StdEncoding.EncodeToString(raw),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, raw, gotBody)
}

func TestHandle_BadBase64(t *testing.T) {
	rl := &recordingLogger{}
	a := &adapter{handler: http.NotFoundHandler(), log: rl}

	resp, err := a.handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/upload",
		Body:            "!!!",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "internal_error")
	assert.Equal(t, []string{"create http request from proxy event"}, rl.errors)
}

func TestResponseRecorder_FirstWriteHeaderWins(t *testing.T) {
	r := newResponseRecorder()
	r.WriteHeader(http.StatusTeapot)
	r.WriteHeader(http.StatusOK)
	_, _ = r.Write([]byte("x"))

	resp := r.toProxyResponse()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "x", resp.Body)
}
