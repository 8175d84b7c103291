package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAwaitShutdown_DrainsInFlightRequests(t *testing.T) {
	handled := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		close(handled)
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		awaitShutdown(ctx, srv, 5*time.Second)
		close(finished)
	}()

	requestErr := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
		requestErr <- err
	}()

	// Cancel while the request is still being handled; the drain context
	// must outlive the canceled signal context.
	time.Sleep(50 * time.Millisecond)
	cancel()

	require.NoError(t, <-requestErr, "in-flight request must complete")
	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never finished")
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
}
