package accrual

import (
	"context"
	"fmt"
	"time"
)

const cycleDeadline = 30 * time.Minute

// Name implements scheduler.Job.
func (e *Engine) Name() string {
	return "accrual-daily-cycle"
}

// Run implements scheduler.Job: it executes one daily cycle under a bounded
// deadline. The cycle itself never aborts on stage errors; the returned
// error only marks the run as unsuccessful for the scheduler's log.
func (e *Engine) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), cycleDeadline)
	defer cancel()

	result := e.RunDailyCycle(ctx)
	if !result.Successful() {
		return fmt.Errorf("daily cycle finished with %d stage errors", len(result.Errors))
	}
	return nil
}
