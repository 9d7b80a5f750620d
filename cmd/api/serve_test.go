package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// queueRunner mimics the notification dispatcher: it handles queued work
// until its context is canceled.
type queueRunner struct {
	mu      sync.Mutex
	ctx     context.Context
	started chan struct{}
	queue   chan string
	handled []string
	stopped bool
}

func newQueueRunner() *queueRunner {
	return &queueRunner{started: make(chan struct{}), queue: make(chan string, 4)}
}

func (q *queueRunner) Run(ctx context.Context) {
	q.mu.Lock()
	q.ctx = ctx
	q.mu.Unlock()
	close(q.started)
	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.stopped = true
			q.mu.Unlock()
			return
		case item := <-q.queue:
			q.mu.Lock()
			q.handled = append(q.handled, item)
			q.mu.Unlock()
		}
	}
}

func (q *queueRunner) runCtx() context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctx
}

// drainingServer finishes one in-flight request during Shutdown. That request
// queues a notification, like an order approval would.
type drainingServer struct {
	runner        *queueRunner
	closed        chan struct{}
	listenErr     error
	aliveOnDrain  bool
	shutdownCalls int
}

func (s *drainingServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.closed
	return http.ErrServerClosed
}

func (s *drainingServer) Shutdown(ctx context.Context) error {
	s.shutdownCalls++
	close(s.closed)
	<-s.runner.started
	s.aliveOnDrain = s.runner.runCtx().Err() == nil
	s.runner.queue <- "order approved"
	deadline := time.After(time.Second)
	for {
		s.runner.mu.Lock()
		n := len(s.runner.handled)
		s.runner.mu.Unlock()
		if n == 1 {
			return nil
		}
		select {
		case <-deadline:
			return errors.New("notification not handled while draining")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestServeStopsBackgroundWorkAfterDrain(t *testing.T) {
	runner := newQueueRunner()
	srv := &drainingServer{runner: runner, closed: make(chan struct{})}
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: io.Discard})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, runner, time.Second, logg) }()

	<-runner.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after shutdown")
	}

	if !srv.aliveOnDrain {
		t.Fatal("background runner was canceled before in-flight requests drained")
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.handled) != 1 || runner.handled[0] != "order approved" {
		t.Fatalf("expected notification from draining request, got %v", runner.handled)
	}
	if !runner.stopped {
		t.Fatal("background runner should stop once serve returns")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	runner := newQueueRunner()
	srv := &drainingServer{runner: runner, closed: make(chan struct{}), listenErr: errors.New("address in use")}
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: io.Discard})

	err := serve(context.Background(), srv, runner, time.Second, logg)
	if err == nil || err.Error() != "address in use" {
		t.Fatalf("expected listen error, got %v", err)
	}
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if !runner.stopped {
		t.Fatal("background runner should stop when the listener fails")
	}
	if srv.shutdownCalls != 0 {
		t.Fatalf("shutdown should not run without a signal, got %d calls", srv.shutdownCalls)
	}
}
