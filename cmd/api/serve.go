package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type backgroundRunner interface {
	Run(ctx context.Context)
}

// serve runs srv until ctx is canceled, then drains in-flight requests.
// bg runs on its own context, canceled only once the drain has finished, so
// work queued by the last requests is still handled.
func serve(ctx context.Context, srv httpServer, bg backgroundRunner, timeout time.Duration, logg *logger.Logger) error {
	bgCtx, cancelBG := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bg.Run(bgCtx)
	}()
	defer func() {
		cancelBG()
		wg.Wait()
	}()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// ListenAndServe returns as soon as Shutdown starts.
	<-drained
	return nil
}
