package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/cardledger/internal/config"
)

type fakeServer struct {
	startErr  error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestServe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{DBConnMaxLifetime: time.Second}

	t.Run("context cancel shuts every server down", func(t *testing.T) {
		api := newFakeServer(nil)
		metricsSrv := newFakeServer(nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- serve(ctx, map[string]runnable{"api": api, "metrics": metricsSrv}, cfg, logger)
		}()

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("serve did not return after cancel")
		}
		assert.Equal(t, int32(1), api.shutdowns.Load())
		assert.Equal(t, int32(1), metricsSrv.shutdowns.Load())
	})

	t.Run("one failing server stops the others", func(t *testing.T) {
		api := newFakeServer(nil)
		metricsSrv := newFakeServer(errors.New("address in use"))

		err := serve(context.Background(), map[string]runnable{"api": api, "metrics": metricsSrv}, cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "metrics server error: address in use")
		assert.Equal(t, int32(1), api.shutdowns.Load())
	})
}
