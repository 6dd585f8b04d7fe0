package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.Float64("min-margin", a.cfg.MinMargin),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("clob-url", a.cfg.ClobBaseURL),
		zap.String("gamma-url", a.cfg.GammaBaseURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	err := a.quoteManager.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start quote manager: %w", err)
	}

	err = a.detector.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start arbitrage detector: %w", err)
	}

	err = a.submitter.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start submitter: %w", err)
	}

	// Market discovery drives quote subscriptions, so it starts after
	// the quote manager.
	a.wg.Add(1)
	go a.runDiscovery()

	if a.cfg.OwnerAddress != "" {
		a.wg.Add(1)
		go a.runSnapshots()
	} else {
		a.logger.Info("portfolio-snapshots-disabled",
			zap.String("reason", "OWNER_ADDRESS not set"))
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

// runSnapshots periodically persists the owner's portfolio view for
// every tracked market.
func (a *App) runSnapshots() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.snapshotPortfolios()
		}
	}
}

func (a *App) snapshotPortfolios() {
	for _, market := range a.index.All() {
		view := a.portfolio.View(a.ctx, a.cfg.OwnerAddress, market)

		// Flat positions with no history are noise.
		if view.TotalQty == 0 && view.TotalRealized == 0 {
			continue
		}

		err := a.storage.StoreSnapshot(a.ctx, view)
		if err != nil {
			a.logger.Error("failed-to-store-snapshot",
				zap.String("market-id", market.ID),
				zap.Error(err))
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
