package controller

import (
	"context"

	"github.com/newswire/newswire/pkg/durable"
)

// Shutdown stops the pipeline in order: stop admitting signals, stop the
// consumer loop, drain what is already queued within the drain budget, then
// cancel the durable instance. Repeated calls are no-ops.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopped
	instanceID := c.effectiveID
	runCancel := c.runCancel
	c.mu.Unlock()

	c.log.Info("shutdown started", "queue_depth", c.queue.Len())

	// New signals are rejected from here on.
	_ = c.receiver.Close()
	_ = c.queue.Close()

	// Stop the loop, then finish the already-queued envelopes.
	runCancel()
	drainCtx, cancel := context.WithTimeout(ctx, c.config.DrainTimeout)
	defer cancel()
	remaining := c.worker.Drain(drainCtx)

	if err := c.engine.Cancel(ctx, instanceID); err != nil {
		if !durable.IsNotFoundError(err) {
			c.log.Warn("failed to cancel instance", "instance_id", instanceID, "error", err)
		}
	}

	c.log.Info("shutdown complete",
		"instance_id", instanceID,
		"received_total", c.receiver.Received(),
		"processed_total", c.worker.Processed(),
		"undrained", remaining)
	return nil
}
