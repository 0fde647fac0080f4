package pipeline

import "time"

// SetNowFunc overrides the orchestrator clock for tests.
func (o *Orchestrator) SetNowFunc(now func() time.Time) {
	o.now = now
}
