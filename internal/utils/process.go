package utils

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), then returns the signal.
func ListenForProcessInterruptOrKill(logger *zap.Logger) os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("press Ctrl+C to exit")

	sig := <-sigChan // block until signal arrives
	logger.Info("shutting down", zap.Stringer("signal", sig))

	return sig
}
