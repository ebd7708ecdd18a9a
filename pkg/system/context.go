// Package system holds process-level helpers shared by the storages.
package system

import (
	"context"
)

// RunWithContext runs operation on its own goroutine with a context detached
// from ctx, so that a storage close is never abandoned half way.
//
// If ctx is already done the operation is not started and ctx.Err() is
// returned. If ctx is cancelled while the operation runs, the operation's
// context is cancelled too and RunWithContext still waits for it to return,
// then returns its result.
func RunWithContext(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Buffered so the goroutine can always deliver and exit.
	done := make(chan error, 1)
	go func() {
		done <- operation(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return <-done
	}
}
