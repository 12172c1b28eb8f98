package table

import (
	"context"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"

	"github.com/harishpvv/SheetUtils/core/condition"
)

// EventType identifies a table operation lifecycle event.
type EventType string

const (
	RowInsertStart   EventType = "row:insert:start"
	RowInsertSuccess EventType = "row:insert:success"
	RowInsertFailed  EventType = "row:insert:failed"
	RowUpdateStart   EventType = "row:update:start"
	RowUpdateSuccess EventType = "row:update:success"
	RowUpdateFailed  EventType = "row:update:failed"
	RowDeleteStart   EventType = "row:delete:start"
	RowDeleteSuccess EventType = "row:delete:success"
	RowDeleteFailed  EventType = "row:delete:failed"
	HighlightStart   EventType = "highlight:start"
	HighlightSuccess EventType = "highlight:success"
	HighlightFailed  EventType = "highlight:failed"
	HighlightCleared EventType = "highlight:cleared"
)

// Event describes one table operation, emitted at start and again on
// success or failure.
type Event struct {
	Type      EventType            `json:"type"`
	Operation string               `json:"operation"`
	Timestamp int64                `json:"timestamp"` // Unix milliseconds
	Condition *condition.Condition `json:"-"`
	Rows      int                  `json:"rows,omitempty"` // rows affected, on success
	Error     *string              `json:"error,omitempty"`
	Duration  *int64               `json:"duration,omitempty"` // milliseconds
}

// EventCallback is invoked for every event of the subscribed type.
type EventCallback func(ctx context.Context, event Event) error

// SubscriptionInfo describes one registered event subscription.
type SubscriptionInfo struct {
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Unsubscribe func()    `json:"-"`
}

// emitter owns the event bus and the subscription registry for one table.
type emitter struct {
	bus           *events.TypedEventBus[Event]
	subscriptions map[string]*SubscriptionInfo
	mu            sync.RWMutex
}

func newEmitter() (*emitter, error) {
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &emitter{
		bus:           bus,
		subscriptions: map[string]*SubscriptionInfo{},
	}, nil
}

func (e *emitter) emit(event Event) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// withEvents wraps an operation with start and success/failure events.
func (e *emitter) withEvents(operation string, start, success, failed EventType, cond *condition.Condition, fn func() (int, error)) (int, error) {
	begin := time.Now()
	e.emit(Event{
		Type:      start,
		Operation: operation,
		Timestamp: begin.UnixMilli(),
		Condition: cond,
	})

	rows, err := fn()
	elapsed := time.Since(begin).Milliseconds()

	if err != nil {
		msg := err.Error()
		e.emit(Event{
			Type:      failed,
			Operation: operation,
			Timestamp: time.Now().UnixMilli(),
			Condition: cond,
			Error:     &msg,
			Duration:  &elapsed,
		})
		return 0, err
	}

	e.emit(Event{
		Type:      success,
		Operation: operation,
		Timestamp: time.Now().UnixMilli(),
		Condition: cond,
		Rows:      rows,
		Duration:  &elapsed,
	})
	return rows, nil
}

// subscribe registers a callback for an event type and returns the
// subscription's identifier.
func (e *emitter) subscribe(event EventType, label *string, cb EventCallback) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	unsubscribe := e.bus.Subscribe(string(event), func(ctx context.Context, ev Event) error {
		return cb(ctx, ev)
	})
	id := uuid.New().String()
	e.subscriptions[id] = &SubscriptionInfo{
		Event:       event,
		Label:       label,
		Unsubscribe: unsubscribe,
	}
	return id
}

func (e *emitter) unsubscribe(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if info := e.subscriptions[id]; info != nil {
		info.Unsubscribe()
		delete(e.subscriptions, id)
	}
}
