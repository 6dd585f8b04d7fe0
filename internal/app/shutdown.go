package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	// Shutdown components in dependency order
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	err = a.submitter.Close()
	if err != nil {
		a.logger.Error("submitter-close-error", zap.Error(err))
	}

	err = a.detector.Close()
	if err != nil {
		a.logger.Error("arbitrage-detector-close-error", zap.Error(err))
	}

	if a.quoteStream != nil {
		err = a.quoteStream.Close()
		if err != nil {
			a.logger.Error("quote-stream-close-error", zap.Error(err))
		}
	}

	err = a.quoteManager.Close()
	if err != nil {
		a.logger.Error("quote-manager-close-error", zap.Error(err))
	}

	err = a.storage.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	err = a.fillRepo.Close()
	if err != nil {
		a.logger.Error("fill-repository-close-error", zap.Error(err))
	}

	a.metadataCache.Close()

	// Wait for all goroutines
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
