// Package installprompt coordinates the platform's "install this
// application" capability: a single-slot, single-use handle plus a
// broadcast so UI can surface a banner when installation becomes possible.
package installprompt

import (
	"context"
	"sync"

	"github.com/agrotrace/agrobio-go/internal/logger"
)

// Capability is the opaque, single-use handle the platform grants for
// prompting the user. Prompt blocks until the user chooses and reports
// whether they accepted.
type Capability interface {
	Prompt(ctx context.Context) (accepted bool, err error)
}

// EventType identifies a coordinator broadcast.
type EventType string

// EventInstallAvailable fires when a new install capability is stored.
const EventInstallAvailable EventType = "pwa-install-available"

// Event is delivered to subscribers on coordinator state changes.
type Event struct {
	Type EventType `json:"type"`
}

// Coordinator owns the single capability slot. At most one live handle
// exists at a time; it is consumed exactly once, by a prompt interaction
// of either outcome, or implicitly replaced when the platform re-offers.
type Coordinator struct {
	log logger.Logger

	mu          sync.Mutex
	capability  Capability
	installed   bool
	subscribers map[chan Event]struct{}
}

// NewCoordinator creates an empty Coordinator.
func NewCoordinator(log logger.Logger) *Coordinator {
	return &Coordinator{
		log:         log,
		subscribers: make(map[chan Event]struct{}),
	}
}

// HandleBeforeInstallPrompt stores a freshly offered capability, replacing
// any previous one, and broadcasts EventInstallAvailable.
func (c *Coordinator) HandleBeforeInstallPrompt(capability Capability) {
	c.mu.Lock()
	c.capability = capability
	c.mu.Unlock()
	c.broadcast(Event{Type: EventInstallAvailable})
	c.log.Debug("install prompt captured")
}

// HandleInstalled records the installed state and clears any stored
// capability. The slot should already be empty; this guards against
// out-of-order platform event delivery.
func (c *Coordinator) HandleInstalled() {
	c.mu.Lock()
	c.capability = nil
	c.installed = true
	c.mu.Unlock()
	c.log.Info("application installed")
}

// CanInstall reports whether a capability is currently stored.
func (c *Coordinator) CanInstall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capability != nil
}

// Installed reports whether the application runs as an installed instance.
func (c *Coordinator) Installed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

// PromptInstall invokes the stored capability and reports whether the user
// accepted. The capability is consumed regardless of outcome. With no
// capability stored it returns false immediately, with no side effects.
func (c *Coordinator) PromptInstall(ctx context.Context) (bool, error) {
	c.mu.Lock()
	capability := c.capability
	c.capability = nil
	c.mu.Unlock()

	if capability == nil {
		return false, nil
	}
	return capability.Prompt(ctx)
}

// Subscribe registers for coordinator events. The returned cancel func
// must be called to release the subscription.
func (c *Coordinator) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 4)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		delete(c.subscribers, ch)
		c.mu.Unlock()
	}
	return ch, cancel
}

// broadcast delivers ev to every subscriber without blocking; a slow
// subscriber misses the event rather than stalling the coordinator.
func (c *Coordinator) broadcast(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
