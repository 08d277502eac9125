package daemon

import (
	"context"
	"sync"

	"softlink/internal/logger"
	"softlink/internal/model"

	"go.uber.org/zap"
)

type Syncer interface {
	Sync(ctx context.Context, trigger string) model.Outcome
}

type HistorySaver interface {
	Save(outcome model.Outcome) error
}

// Dispatcher runs passes on a single worker. Triggers that arrive while a
// pass is running collapse into one follow-up pass.
type Dispatcher struct {
	syncer  Syncer
	state   *State
	history HistorySaver
	queue   chan string
}

func NewDispatcher(s Syncer, state *State, history HistorySaver) *Dispatcher {
	return &Dispatcher{
		syncer:  s,
		state:   state,
		history: history,
		queue:   make(chan string, 1),
	}
}

// Trigger queues a pass unless one is already queued. It never blocks.
func (d *Dispatcher) Trigger(reason string) {
	select {
	case d.queue <- reason:
	default:
		logger.Log.Debug("pass already queued",
			zap.String("trigger", reason))
	}
}

// Run forwards membership events to the worker until ctx is cancelled.
// A pass in flight at cancellation is allowed to return before Run does.
func (d *Dispatcher) Run(ctx context.Context, events <-chan model.ChangeEvent) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.work(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				logger.Log.Warn("event source closed, only manual passes remain")
				events = nil
				continue
			}
			if !event.Membership() {
				continue
			}

			logger.Log.Info(eventMessage(event.Kind),
				zap.String("path", event.Path))
			d.Trigger(event.Path)
		}
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-d.queue:
			d.pass(ctx, reason)
		}
	}
}

func (d *Dispatcher) pass(ctx context.Context, reason string) {
	d.state.SetStatus(model.StateSyncing)
	defer d.state.SetStatus(model.StateIdle)

	outcome := d.syncer.Sync(ctx, reason)
	d.state.RecordPass(outcome)

	if d.history == nil {
		return
	}
	if err := d.history.Save(outcome); err != nil {
		logger.Log.Warn("failed to save history",
			zap.Error(err))
	}
}

func eventMessage(kind model.EventKind) string {
	if kind == model.EventDeleted {
		return "deleted"
	}
	return "created"
}
