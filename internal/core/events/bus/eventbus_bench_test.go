package bus

import (
	"strconv"
	"sync/atomic"
	"testing"
)

func makeHandler(c *int64) EventHandler {
	return func(e Event) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

type nopObserver struct{}

func (nopObserver) OnPublish(eventType string, event Event)                                {}
func (nopObserver) OnDelivered(eventType string, handlers int, err error, durMicros int64) {}

func BenchmarkPublishManySubscribers(b *testing.B) {
	for _, subs := range []int{1, 4, 16, 64} {
		b.Run("subs="+strconv.Itoa(subs), func(b *testing.B) {
			bus := New()
			var c int64
			for i := 0; i < subs; i++ {
				_, _ = bus.Subscribe("collision", makeHandler(&c))
			}
			e := NewEvent("collision", "bench", 0, nil)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = bus.Publish(e)
			}
		})
	}
}

func BenchmarkObserverOverhead(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("tick", makeHandler(&c))
	bus.AddObserver(nopObserver{})
	e := NewEvent("tick", "bench", 0, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(e)
	}
}

func BenchmarkQueueSendDrain(b *testing.B) {
	q := NewQueue[int]()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 64; j++ {
			q.Send(j)
		}
		_ = q.Drain()
	}
}
