package petriflow

import "go.uber.org/zap"

// Events observers may subscribe to. StateChanged fires after a successful
// move; TransitionFailed fires for every rejected attempt.
const (
	StateChanged     = "state_changed"
	TransitionFailed = "transition_failed"
)

// Change describes a firing outcome delivered to observers. Err is set only
// for TransitionFailed.
type Change struct {
	From       string
	To         string
	Transition string
	Token      *Token
	Err        error
}

// Handler receives change notifications. Handlers run in registration order
// on the firing goroutine. A panicking handler is recovered and logged; it
// cannot undo a firing that already happened, and it does not stop the
// handlers after it.
type Handler func(Change)

// On registers a handler for an event.
func (n *Net) On(event string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[event] = append(n.handlers[event], h)
}

func (n *Net) emit(event string, c Change) {
	n.mu.RLock()
	hh := make([]Handler, len(n.handlers[event]))
	copy(hh, n.handlers[event])
	n.mu.RUnlock()
	for _, h := range hh {
		n.dispatch(event, h, c)
	}
}

func (n *Net) dispatch(event string, h Handler, c Change) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("event handler panicked",
				zap.String("event", event),
				zap.String("transition", c.Transition),
				zap.Any("panic", r),
			)
		}
	}()
	h(c)
}
