// Package di wires the node's services together from configuration.
package di

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Container is the dependency injection container.
// It manages service registration, lazy resolution and shutdown.
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	builders map[string]Builder

	// building guards against builders that resolve themselves
	building map[string]bool

	closeMu sync.Mutex
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// Builder is a function that creates a service instance. A builder may
// return a nil service for a feature that is switched off.
type Builder func(c *Container) (interface{}, error)

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
		building: make(map[string]bool),
	}
}

// Register registers a service instance.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.RLock()
	service, exists := c.services[name]
	c.mu.RUnlock()
	if exists {
		return service, nil
	}

	c.mu.Lock()
	if service, exists := c.services[name]; exists {
		c.mu.Unlock()
		return service, nil
	}
	builder, hasBuilder := c.builders[name]
	if !hasBuilder {
		c.mu.Unlock()
		return nil, errors.New("service not found: " + name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, errors.New("dependency cycle at service: " + name)
	}
	c.building[name] = true
	c.mu.Unlock()

	// Builders resolve their own dependencies, so the lock is not held here
	service, err := builder(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	c.services[name] = service
	return service, nil
}

// Resolve retrieves a service as type T. A switched-off service resolves to
// the zero value of T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	service, err := c.Get(name)
	if err != nil || service == nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s is %T, not %T", name, service, zero)
	}
	return typed, nil
}

// Has checks if a service is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, exists := c.services[name]; exists {
		return true
	}
	_, exists := c.builders[name]
	return exists
}

// ServiceNames returns all registered service names, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}
	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// OnClose registers fn to run when the container is closed. Closers run in
// reverse registration order, so a service closes before what it depends on.
func (c *Container) OnClose(name string, fn func() error) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	c.closers = append(c.closers, namedCloser{name: name, fn: fn})
}

// Close runs every closer once and returns their joined errors.
func (c *Container) Close() error {
	c.closeMu.Lock()
	closers := c.closers
	c.closers = nil
	c.closeMu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", closers[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Service names constants for type-safe access.
const (
	ServiceConfig      = "config"
	ServiceLedgerStore = "ledger.store"
	ServiceJournal     = "journal"
	ServiceLedger      = "ledger"
	ServiceMetrics     = "metrics"
	ServiceRPCServer   = "rpc.server"
	ServiceWebSocket   = "rpc.websocket"
	ServiceGRPCServer  = "grpc.server"
)
