package media

import "sync"

type registration struct {
	id       ListenerID
	listener Listener
}

// EventTarget keeps the listeners registered per event.  Element implementations embed it to provide
// AddEventListener and RemoveEventListener.
type EventTarget struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[Event][]registration
}

// AddEventListener registers a listener for the event and returns its id
func (t *EventTarget) AddEventListener(event Event, listener Listener) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.listeners == nil {
		t.listeners = make(map[Event][]registration)
	}
	t.nextID++
	t.listeners[event] = append(t.listeners[event], registration{id: t.nextID, listener: listener})
	return t.nextID
}

// RemoveEventListener removes a listener.  Unknown ids are ignored.
func (t *EventTarget) RemoveEventListener(event Event, id ListenerID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	regs := t.listeners[event]
	for i, reg := range regs {
		if reg.id == id {
			t.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(t.listeners[event]) == 0 {
		delete(t.listeners, event)
	}
}

// Dispatch calls every listener registered for the event.  Listeners run without the lock held, so they
// may add or remove listeners themselves.
func (t *EventTarget) Dispatch(event Event) {
	t.mu.Lock()
	regs := append([]registration(nil), t.listeners[event]...)
	t.mu.Unlock()

	for _, reg := range regs {
		if t.registered(event, reg.id) {
			reg.listener(event)
		}
	}
}

// ListenerCount returns how many listeners are registered across all events
func (t *EventTarget) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, regs := range t.listeners {
		count += len(regs)
	}
	return count
}

// registered reports whether the listener is still attached.  A listener removed by an earlier listener in the
// same dispatch must not be called.
func (t *EventTarget) registered(event Event, id ListenerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, reg := range t.listeners[event] {
		if reg.id == id {
			return true
		}
	}
	return false
}
