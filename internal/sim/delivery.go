package sim

import (
	"sync/atomic"

	"github.com/zeusync/tickphys/internal/core/events/bus"
	"github.com/zeusync/tickphys/internal/core/observability/log"
)

var _ bus.Observer = (*deliveries)(nil)

// DeliveryStats counts what the publish system handed to reactions in one
// frame.
type DeliveryStats struct {
	Published int // events published, with or without subscribers
	Handled   int // handler invocations
	Failed    int // events for which at least one handler failed
}

// deliveries watches the simulation's bus. It keeps the bus metrics live and
// collects per-frame counts for the FrameReport.
type deliveries struct {
	logger log.Log

	published atomic.Int64
	handled   atomic.Int64
	failed    atomic.Int64
}

func (d *deliveries) OnPublish(string, bus.Event) {
	d.published.Add(1)
}

func (d *deliveries) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	d.handled.Add(int64(handlers))
	if err != nil {
		d.failed.Add(1)
		d.logger.Debug("Reaction failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Int64("micros", durationMicros),
			log.Error(err),
		)
	}
}

// take returns the counts since the previous call and starts over.
func (d *deliveries) take() DeliveryStats {
	return DeliveryStats{
		Published: int(d.published.Swap(0)),
		Handled:   int(d.handled.Swap(0)),
		Failed:    int(d.failed.Swap(0)),
	}
}
