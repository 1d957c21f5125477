package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"erpdesk/internal/core/apperror"
	"erpdesk/internal/core/task"
)

// Event is a lifecycle name or a field name.
type Event string

// Lifecycle events.
const (
	EventRefresh  Event = "refresh"
	EventValidate Event = "validate"
	EventOnSubmit Event = "on_submit"
)

// RowRef points at the child row a field event fired on.
type RowRef struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
}

// Handler reacts to a form event. row is nil for document-level events.
type Handler func(ctx context.Context, f *Form, row *RowRef) error

// Handlers maps events to handlers for one registration.
type Handlers map[Event]Handler

// Registry maps doctype -> event -> ordered handlers.
//
// Registrations for the same doctype merge: a new event is added and a
// handler for a known event runs after the ones registered before it.
// Nothing is ever replaced.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]map[Event][]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]map[Event][]Handler)}
}

// On registers handlers for doctype.
func (r *Registry) On(doctype string, handlers Handlers) {
	events := make([]Event, 0, len(handlers))
	for e := range handlers {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.add(doctype, e, handlers[e])
	}
}

// Handle registers a single handler.
func (r *Registry) Handle(doctype string, event Event, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(doctype, event, h)
}

func (r *Registry) add(doctype string, event Event, h Handler) {
	if h == nil {
		return
	}
	byEvent, ok := r.handlers[doctype]
	if !ok {
		byEvent = make(map[Event][]Handler)
		r.handlers[doctype] = byEvent
	}
	byEvent[event] = append(byEvent[event], h)
}

// Count returns the number of handlers bound to an event.
func (r *Registry) Count(doctype string, event Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[doctype][event])
}

// Events lists the events bound for doctype, sorted.
func (r *Registry) Events(doctype string) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, 0, len(r.handlers[doctype]))
	for e := range r.handlers[doctype] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs every handler bound to event in registration order.
// Row events resolve handlers by the child doctype. A failing handler does
// not stop the ones after it; all errors are returned joined.
func (r *Registry) Dispatch(ctx context.Context, event Event, f *Form, row *RowRef) error {
	doctype := f.Doc.Doctype
	if row != nil {
		_, found, ok := f.Doc.FindRow(row.Name)
		if !ok {
			return apperror.NewNotFound("row", row.Name)
		}
		if row.Doctype == "" {
			row.Doctype = found.Doctype
		}
		if row.Doctype != found.Doctype {
			return apperror.NewValidation(fmt.Sprintf("row %s is a %s, not a %s", row.Name, found.Doctype, row.Doctype))
		}
		doctype = row.Doctype
	}

	r.mu.RLock()
	handlers := append([]Handler(nil), r.handlers[doctype][event]...)
	r.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, f, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DispatchAsync runs Dispatch in the background and returns its handle.
// The form must not be touched until the handle is done.
func (r *Registry) DispatchAsync(ctx context.Context, event Event, f *Form, row *RowRef) *task.Handle[*Form] {
	return task.Go(ctx, func(ctx context.Context) (*Form, error) {
		return f, r.Dispatch(ctx, event, f, row)
	})
}
