package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchConnectionExitsAfterShutdown(t *testing.T) {
	s := NewServer(testLogger(), NewRoomManager(testLogger(), nil), false)

	ctx, cancel := context.WithCancel(context.Background())
	conn := &Connection{ctx: ctx, cancel: cancel}
	cancel()

	// stop the server before the run loop ever drains unregister
	require.NoError(t, s.Shutdown(context.Background()))

	done := make(chan struct{})
	go func() {
		s.watchConnection(conn)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchConnection must not block after shutdown")
	}
}
