package audit

import (
	"context"
	"log"
	"time"
)

// writeTimeout bounds each row insert.
const writeTimeout = 5 * time.Second

type Event struct {
	BarbershopID uint
	UserID       *uint
	Action       string
	Entity       string
	EntityID     *uint
	Metadata     any
}

// Recorder is what use cases depend on. Dispatcher is the production one.
type Recorder interface {
	Dispatch(ev Event)
}

type Dispatcher struct {
	logger *Logger
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(logger *Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		queue:  make(chan Event, 100), // buffer seguro
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := d.logger.Log(ctx, ev)
		cancel()
		if err != nil {
			log.Printf("[audit] write %s/%s failed: %v", ev.Entity, ev.Action, err)
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		// fila cheia: descarta o evento, nunca quebra a API
		log.Printf("[audit] queue full, dropping %s/%s", ev.Entity, ev.Action)
	}
}

// Close stops the worker after the queue drains. Nothing may Dispatch after
// Close.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

// Discard drops every event.
type Discard struct{}

func (Discard) Dispatch(Event) {}

// Ptr is a small helper for the optional ids on Event.
func Ptr(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}
