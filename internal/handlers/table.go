// Package handlers holds the fixed-size dispatch table shared by the
// transport engines.
package handlers

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrKeyOutOfRange = errors.New("handlers: key out of range")
	ErrNilHandler    = errors.New("handlers: handler is nil")
)

// Handler consumes one received message. It runs on the dispatch goroutine:
// it must not block, must read only buf[:n], and must not keep buf, which is
// overwritten by the next message.
type Handler interface {
	Handle(buf []uint32, n int)
}

// Func adapts a plain function to Handler.
type Func func(buf []uint32, n int)

func (f Func) Handle(buf []uint32, n int) {
	f(buf, n)
}

type nop struct{}

func (nop) Handle([]uint32, int) {}

// Nop drops every message.
var Nop Handler = nop{}

// Table maps a small integer key to a Handler. Empty slots hold Nop.
type Table struct {
	mu    sync.RWMutex
	slots []Handler
	set   []bool
}

func NewTable(size int) *Table {
	t := &Table{
		slots: make([]Handler, size),
		set:   make([]bool, size),
	}
	for i := range t.slots {
		t.slots[i] = Nop
	}
	return t
}

// Register stores h under key; the last registration wins.
func (t *Table) Register(key int, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if key < 0 || key >= len(t.slots) {
		return fmt.Errorf("%w: %d (size %d)", ErrKeyOutOfRange, key, len(t.slots))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots[key] = h
	t.set[key] = true
	return nil
}

// Lookup returns the handler for key and whether one was registered. An
// unregistered or out-of-range key returns Nop.
func (t *Table) Lookup(key int) (Handler, bool) {
	if key < 0 || key >= len(t.slots) {
		return Nop, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slots[key], t.set[key]
}
