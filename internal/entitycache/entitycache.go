// Package entitycache implements the insert-before-fill entity cache
// spec.md §4.7 requires for cycle-safe graph construction (a protocol that
// adopts itself transitively, or a class chain that loops through a
// corrupt superclass pointer must still terminate). Grounded on
// blacktop-go-macho's File.objc map[uint64]*objc.Class cache in objc.go,
// which is checked and populated before GetObjCClass recurses into a
// class's superclass; generalized here to any entity type and made safe
// for concurrent fill from the task-parallel processor.
package entitycache

import "sync"

// Cache maps a Mach-O virtual address to an in-progress or finished entity
// of type T. Reserve must be called before an entity's fields are filled in,
// so that a cycle back to the same address finds the (possibly still empty)
// entity instead of recursing forever.
type Cache[T any] struct {
	mu sync.Mutex
	m  map[uint64]*T
}

// New returns an empty Cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{m: make(map[uint64]*T)}
}

// Get returns the entity at addr, if any.
func (c *Cache[T]) Get(addr uint64) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[addr]
	return v, ok
}

// Reserve returns the entity already cached at addr, if any (shouldFill is
// false: some other caller already created, or is creating, it). Otherwise
// it calls create, stores the result under addr, and returns (entity, true)
// so the caller knows it won the race and must fill the entity's fields.
//
// create is called while holding the cache lock, so it must not call back
// into this cache or block; it should only allocate the zero-value entity
// (e.g. &Class{Name: name, Address: addr}).
func (c *Cache[T]) Reserve(addr uint64, create func() *T) (entity *T, shouldFill bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.m[addr]; ok {
		return v, false
	}
	v := create()
	c.m[addr] = v
	return v, true
}

// Values returns every cached entity, in no particular order.
func (c *Cache[T]) Values() []*T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*T, 0, len(c.m))
	for _, v := range c.m {
		out = append(out, v)
	}
	return out
}

// Len reports the number of cached entities.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
