package chronicler

import (
	"github.com/bft-labs/chronicler/internal/app"
	"github.com/bft-labs/chronicler/internal/domain"
)

// State is the lifecycle state of a Client.
type State = app.State

// Lifecycle states.
const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
	StateCrashed  = app.StateCrashed
)

// StateChangeEvent reports a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FlushEvent reports that a flush started.
type FlushEvent struct {
	FlushID string
	// Trigger is one of "size", "severity", "idle", "window-closed",
	// "shutdown".
	Trigger string
	Records int
}

// FlushSettledEvent reports that every delivery of a flush finished.
type FlushSettledEvent struct {
	FlushID   string
	Delivered int
	Dropped   int
}

// RecordDroppedEvent reports a record abandoned after its last attempt.
type RecordDroppedEvent struct {
	Record   LogRecord
	Attempts int
}

// EventHandler receives client events. OnRecordDropped may be called from
// several goroutines at once; all methods should return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnFlush(FlushEvent)
	OnFlushSettled(FlushSettledEvent)
	OnRecordDropped(RecordDroppedEvent)
}

// BaseEventHandler is a no-op EventHandler to embed.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnFlush(FlushEvent)                 {}
func (BaseEventHandler) OnFlushSettled(FlushSettledEvent)   {}
func (BaseEventHandler) OnRecordDropped(RecordDroppedEvent) {}

// eventEmitterWrapper adapts EventHandler to the engine and lifecycle
// emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (e *eventEmitterWrapper) OnFlush(flushID string, trigger app.Trigger, count int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlush(FlushEvent{FlushID: flushID, Trigger: trigger.String(), Records: count})
}

func (e *eventEmitterWrapper) OnFlushSettled(flushID string, delivered, dropped int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSettled(FlushSettledEvent{FlushID: flushID, Delivered: delivered, Dropped: dropped})
}

func (e *eventEmitterWrapper) OnRecordDropped(rec domain.LogRecord, attempts int) {
	if e.handler == nil {
		return
	}
	e.handler.OnRecordDropped(RecordDroppedEvent{Record: rec, Attempts: attempts})
}
