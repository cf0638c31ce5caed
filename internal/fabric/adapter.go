package fabric

import (
	"sync"

	"github.com/danmuck/hybridmp/internal/hal"
)

type port struct {
	enabled bool
	rx      []uint32
	tx      []uint32
}

// adapter holds the register state shared by both adapter kinds.
type adapter struct {
	mu     sync.Mutex
	info   uint32
	ports  []port
	irq    chan hal.Event
	closed bool
}

func (a *adapter) setup(info uint32, n int) {
	a.info = info
	a.ports = make([]port, n)
	a.irq = make(chan hal.Event, 1)
}

func (a *adapter) Info() uint32 {
	return a.info
}

func (a *adapter) Read(index int) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.ports) {
		return 0
	}
	p := &a.ports[index]
	if len(p.rx) == 0 {
		return 0
	}
	w := p.rx[0]
	p.rx = p.rx[1:]
	return w
}

func (a *adapter) Enable(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index >= 0 && index < len(a.ports) {
		a.ports[index].enabled = true
	}
}

// Status reports the number of words waiting in the receive queue.
func (a *adapter) Status(index int) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.ports) {
		return 0
	}
	return uint32(len(a.ports[index].rx))
}

func (a *adapter) Interrupts() <-chan hal.Event {
	return a.irq
}

// deliver queues a length-prefixed packet on index and raises the interrupt
// line. It reports false when the port is disabled or does not exist.
func (a *adapter) deliver(index int, packet []uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.ports) || !a.ports[index].enabled || a.closed {
		return false
	}
	p := &a.ports[index]
	p.rx = append(p.rx, uint32(len(packet)))
	p.rx = append(p.rx, packet...)
	select {
	case a.irq <- hal.Event{Index: index}:
	default:
	}
	return true
}

func (a *adapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.irq)
	}
}

// PSAdapter is the packet-switched network adapter of one tile.
type PSAdapter struct {
	adapter
	tile   int
	fabric *Fabric
}

var _ hal.Device = (*PSAdapter)(nil)

// Write collects a length word and then that many words. The packet leaves
// the tile once it is complete.
func (a *PSAdapter) Write(index int, word uint32) {
	a.mu.Lock()
	if index < 0 || index >= len(a.ports) {
		a.mu.Unlock()
		return
	}
	p := &a.ports[index]
	p.tx = append(p.tx, word)
	if uint32(len(p.tx)) != p.tx[0]+1 {
		a.mu.Unlock()
		return
	}
	packet := append([]uint32(nil), p.tx[1:]...)
	p.tx = p.tx[:0]
	a.mu.Unlock()

	if len(packet) > 0 {
		a.fabric.routePacket(a.tile, packet)
	}
}

// TDMAdapter is the TDM network adapter of one tile.
type TDMAdapter struct {
	adapter
	tile   int
	fabric *Fabric
}

var (
	_ hal.Device    = (*TDMAdapter)(nil)
	_ hal.Committer = (*TDMAdapter)(nil)
)

func (a *TDMAdapter) Write(index int, word uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index >= 0 && index < len(a.ports) {
		a.ports[index].tx = append(a.ports[index].tx, word)
	}
}

// Commit sends the words written to index since the last commit as one
// message over the channel's link.
func (a *TDMAdapter) Commit(index int) {
	a.mu.Lock()
	if index < 0 || index >= len(a.ports) || len(a.ports[index].tx) == 0 {
		a.mu.Unlock()
		return
	}
	msg := append([]uint32(nil), a.ports[index].tx...)
	a.ports[index].tx = a.ports[index].tx[:0]
	a.mu.Unlock()

	a.fabric.routeMessage(Port{Tile: a.tile, Channel: index}, msg)
}

func (a *adapter) enabledAt(index int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return index >= 0 && index < len(a.ports) && a.ports[index].enabled
}
