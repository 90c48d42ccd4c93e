package device

import (
	"log/slog"
	"sync/atomic"

	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
)

// Context is a per-session execution context. It owns the shared workspace
// arena and carries an opaque command-queue handle for backends that hand
// work to an external queue; the core stores the handle without interpreting
// it.
//
// A context must not be entered concurrently: one forward or backward call
// holds it at a time.
type Context struct {
	device    *Device
	queue     any
	workspace []byte
	held      atomic.Bool
	par       parallel.Config
}

// NewContext returns a fresh context with an empty arena and default
// parallelism.
func (d *Device) NewContext() *Context {
	return &Context{device: d, par: parallel.DefaultConfig()}
}

// Device returns the owning device.
func (c *Context) Device() *Device { return c.device }

// Parallel returns the loop parallelism configuration.
func (c *Context) Parallel() parallel.Config { return c.par }

// SetParallel overrides the loop parallelism configuration.
func (c *Context) SetParallel(cfg parallel.Config) { c.par = cfg }

// SetCommandQueue stores the opaque queue handle.
func (c *Context) SetCommandQueue(q any) { c.queue = q }

// CommandQueue returns the opaque queue handle, or nil.
func (c *Context) CommandQueue() any { return c.queue }

// SharedWorkspace hands out the context's scratch arena, growing it to at
// least size bytes first. The arena is exclusively held until release runs,
// and the returned slice is invalidated by the next acquisition. Growth is
// monotone: the arena keeps its high-water mark and never shrinks. Contents
// are unspecified; callers write before they read.
func (c *Context) SharedWorkspace(size int) (buf []byte, release func(), err error) {
	if size < 0 {
		return nil, nil, status.Errorf(status.KindShapeMismatch,
			"negative workspace size %d", size)
	}
	if !c.held.CompareAndSwap(false, true) {
		return nil, nil, status.Errorf(status.KindInvalidState,
			"shared workspace already held by an in-flight call")
	}
	if size > len(c.workspace) {
		slog.Debug("growing shared workspace", "from", len(c.workspace), "to", size)
		c.workspace = make([]byte, size)
	}
	release = func() { c.held.Store(false) }
	return c.workspace[:size], release, nil
}

// WorkspaceSize returns the arena's current high-water mark in bytes.
func (c *Context) WorkspaceSize() int { return len(c.workspace) }
