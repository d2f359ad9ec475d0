// SPDX-License-Identifier: EPL-2.0

// Package filter is the bridge between a player's render path and the
// effects that process its blocks.
//
// Registration happens on the control side and replaces the whole entry
// list (copy-on-write). Run only loads the current list, so it never locks
// or allocates and always sees a consistent set of filters.
package filter

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Func processes an interleaved block in place. ctx is the opaque value
// given at registration; it is referenced, never owned.
type Func func(ctx any, block []float32, channels int)

// Handle identifies one registration. The zero Handle is never issued.
type Handle uint64

type entry struct {
	handle Handle
	fn     Func
	ctx    any
}

// Chain runs filters in registration order.
type Chain struct {
	entries atomic.Pointer[[]entry]

	mu   sync.Mutex
	next Handle
}

// Register appends fn and returns the handle to remove it with.
func (c *Chain) Register(fn Func, ctx any) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	var cur []entry
	if p := c.entries.Load(); p != nil {
		cur = *p
	}

	list := append(slices.Clip(cur), entry{handle: c.next, fn: fn, ctx: ctx})
	c.entries.Store(&list)

	return c.next
}

// Unregister removes the filter registered under h. It reports whether h
// was registered. A Run already in progress keeps the list it loaded, so fn
// may be called one last time after Unregister returns; keep its context
// valid until the next block has been rendered.
func (c *Chain) Unregister(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.entries.Load()
	if p == nil {
		return false
	}

	i := slices.IndexFunc(*p, func(e entry) bool { return e.handle == h })
	if i < 0 {
		return false
	}

	list := slices.Delete(slices.Clone(*p), i, i+1)
	c.entries.Store(&list)
	return true
}

// Len is the number of registered filters.
func (c *Chain) Len() int {
	if p := c.entries.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// Run invokes every filter on block, in registration order.
func (c *Chain) Run(block []float32, channels int) {
	p := c.entries.Load()
	if p == nil {
		return
	}
	for _, e := range *p {
		e.fn(e.ctx, block, channels)
	}
}
