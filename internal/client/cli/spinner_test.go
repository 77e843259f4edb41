package cli

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/refgate/internal/client/client"
	"github.com/dmitrijs2005/refgate/internal/client/config"
	"github.com/dmitrijs2005/refgate/internal/validation"
)

type recordingSpinner struct {
	running bool
	stops   int
}

func (s *recordingSpinner) Start(string)    { s.running = true }
func (s *recordingSpinner) SetLabel(string) {}
func (s *recordingSpinner) Stop() {
	if s.running {
		s.stops++
	}
	s.running = false
}

// stubClient panics or fails on chosen calls.
type stubClient struct {
	client.Client
	putErr     error
	startPanic bool
	cleanups   int
}

func (c *stubClient) RequestUploadCredential(context.Context, string, string) (*client.Credential, error) {
	return &client.Credential{Bucket: "docs", RequestID: "r1", Path: "docs/r1/a.pdf"}, nil
}

func (c *stubClient) PutObject(context.Context, *client.Credential, []byte) error { return c.putErr }

func (c *stubClient) StartAnalysis(context.Context, *validation.Payload) (*client.Envelope, error) {
	if c.startPanic {
		panic("boom")
	}
	return &client.Envelope{Success: true, Message: "ok"}, nil
}

func (c *stubClient) Cleanup(context.Context, string, string) error {
	c.cleanups++
	return nil
}

func newStubApp(t *testing.T, c client.Client) (*App, *recordingSpinner) {
	t.Helper()
	orig := newClient
	t.Cleanup(func() { newClient = orig })
	newClient = func(*config.Config) client.Client { return c }

	cfg := &config.Config{}
	cfg.LoadDefaults()
	a := NewApp(cfg, io.Discard, io.Discard)
	sp := &recordingSpinner{}
	a.newSpinner = func() spinner { return sp }
	return a, sp
}

func TestSend_SpinnerStoppedOnEveryPath(t *testing.T) {
	path := writeDoc(t, "a.pdf", []byte("%PDF"))

	t.Run("success", func(t *testing.T) {
		a, sp := newStubApp(t, &stubClient{})
		require.NoError(t, a.Send(context.Background(), path))
		assert.False(t, sp.running)
		assert.Equal(t, 1, sp.stops)
	})

	t.Run("error", func(t *testing.T) {
		c := &stubClient{putErr: errors.New("denied")}
		a, sp := newStubApp(t, c)
		require.Error(t, a.Send(context.Background(), path))
		assert.False(t, sp.running)
		assert.Equal(t, 1, c.cleanups)
	})

	t.Run("panic", func(t *testing.T) {
		c := &stubClient{startPanic: true}
		a, sp := newStubApp(t, c)
		assert.PanicsWithValue(t, "boom", func() { _ = a.Send(context.Background(), path) })
		assert.False(t, sp.running)
		assert.Equal(t, 1, c.cleanups)
	})
}
