package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frahmantamala/expense-client/internal/core/events"
)

// PrincipalSource reads the current session each time it is called.
type PrincipalSource func() Principal

// Navigator remembers only the requested path. Every read resolves it again
// against the live session, so a logout is visible on the next read.
type Navigator struct {
	mu          sync.Mutex
	requested   string
	principal   PrincipalSource
	unsubscribe []func()
	logger      *slog.Logger
}

func NewNavigator(principal PrincipalSource, bus *events.EventBus, logger *slog.Logger) *Navigator {
	n := &Navigator{
		requested: "/",
		principal: principal,
		logger:    logger,
	}
	if bus != nil {
		for _, eventType := range events.SessionEventTypes {
			n.unsubscribe = append(n.unsubscribe, bus.Subscribe(eventType, n.onSessionChanged))
		}
	}
	return n
}

// Navigate requests path and returns where it lands.
func (n *Navigator) Navigate(path string) Resolution {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = path
	return n.resolveLocked()
}

func (n *Navigator) Current() Resolution {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resolveLocked()
}

func (n *Navigator) resolveLocked() Resolution {
	res := Resolve(n.principal(), n.requested)
	if res.Redirected {
		n.logger.Debug("route redirected", "from", n.requested, "to", res.Path)
		n.requested = res.Path
	}
	return res
}

// onSessionChanged sends freshly signed-in users to their home view.
func (n *Navigator) onSessionChanged(_ context.Context, event events.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch event.EventType() {
	case events.EventTypeLoggedIn, events.EventTypeRegistered:
		n.requested = Home(n.principal().State())
	}
	res := n.resolveLocked()
	n.logger.Debug("route recomputed", "event_type", event.EventType(), "view", res.View, "path", res.Path)
	return nil
}

func (n *Navigator) Close() {
	for _, unsubscribe := range n.unsubscribe {
		unsubscribe()
	}
	n.unsubscribe = nil
}
