// Package events carries cache invalidations from the views that mutate
// data to the caches that hold it.
package events

import (
	"sync"
	"time"
)

// Key names a cached collection.
type Key string

const (
	Vendors   Key = "vendors"
	Invoices  Key = "invoices"
	Inventory Key = "inventory"
	Sales     Key = "sales"
	Expenses  Key = "expenses"
	Users     Key = "users"
	Dashboard Key = "dashboard"
)

// affected lists what a mutation of each collection makes stale.
var affected = map[Key][]Key{
	Vendors:   {Vendors},
	Invoices:  {Invoices, Vendors, Dashboard},
	Inventory: {Inventory},
	Sales:     {Sales, Dashboard},
	Expenses:  {Expenses, Dashboard},
	Users:     {Users},
}

// Affected returns the collections a mutation of source invalidates.
func Affected(source Key) []Key {
	keys, ok := affected[source]
	if !ok {
		return []Key{source}
	}
	out := make([]Key, len(keys))
	copy(out, keys)
	return out
}

// Invalidation is published after a mutation completes.
type Invalidation struct {
	Keys   []Key
	Source Key
	At     time.Time
}

// Handler receives invalidations.
type Handler func(Invalidation)

// Bus fans invalidations out to subscribers, synchronously and in
// subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
	order  []int
	now    func() time.Time
}

func NewBus() *Bus {
	return &Bus{subs: map[int]Handler{}, now: time.Now}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers inv to every subscriber.
func (b *Bus) Publish(inv Invalidation) {
	if inv.At.IsZero() {
		inv.At = b.now()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(inv)
	}
}

// Mutated publishes the invalidation set of a mutation of source.
func (b *Bus) Mutated(source Key) {
	b.Publish(Invalidation{Keys: Affected(source), Source: source})
}
