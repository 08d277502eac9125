package pipeline

import (
	"time"

	"softlink/internal/model"
)

// Coalesce collapses bursts of events: the last event of a burst is emitted
// once no new event has arrived for delay. A pending event is flushed when
// inCh closes. A non-positive delay passes every event through.
func Coalesce(inCh <-chan model.ChangeEvent, delay time.Duration) <-chan model.ChangeEvent {
	outCh := make(chan model.ChangeEvent, cap(inCh))

	go func() {
		defer close(outCh)

		if delay <= 0 {
			for event := range inCh {
				outCh <- event
			}
			return
		}

		var (
			pending *model.ChangeEvent
			timer   *time.Timer
			fire    <-chan time.Time
		)

		for {
			select {
			case event, ok := <-inCh:
				if !ok {
					if timer != nil {
						timer.Stop()
					}
					if pending != nil {
						outCh <- *pending
					}
					return
				}

				pending = &event
				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					timer.Reset(delay)
				}
				fire = timer.C

			case <-fire:
				outCh <- *pending
				pending = nil
				fire = nil
			}
		}
	}()

	return outCh
}
