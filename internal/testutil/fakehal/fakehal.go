// Package fakehal provides a scripted hal.Device for engine tests.
package fakehal

import (
	"sync"

	"github.com/danmuck/hybridmp/internal/hal"
)

// Device records every register access. Receive queues are filled by the
// test through Inject and InjectPacket.
type Device struct {
	mu      sync.Mutex
	info    uint32
	rx      [][]uint32
	tx      [][]uint32
	reads   []int
	enables []int
	commits []int
	status  []uint32
	irq     chan hal.Event
}

var (
	_ hal.Device    = (*Device)(nil)
	_ hal.Committer = (*Device)(nil)
)

func New(info uint32, queues int) *Device {
	return &Device{
		info:    info,
		rx:      make([][]uint32, queues),
		tx:      make([][]uint32, queues),
		reads:   make([]int, queues),
		enables: make([]int, queues),
		commits: make([]int, queues),
		status:  make([]uint32, queues),
		irq:     make(chan hal.Event, 1),
	}
}

func (d *Device) Info() uint32 {
	return d.info
}

func (d *Device) Write(index int, word uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.valid(index) {
		d.tx[index] = append(d.tx[index], word)
	}
}

func (d *Device) Read(index int) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(index) {
		return 0
	}
	d.reads[index]++
	if len(d.rx[index]) == 0 {
		return 0
	}
	w := d.rx[index][0]
	d.rx[index] = d.rx[index][1:]
	return w
}

func (d *Device) Enable(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.valid(index) {
		d.enables[index]++
	}
}

func (d *Device) Status(index int) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(index) {
		return 0
	}
	return d.status[index]
}

func (d *Device) Interrupts() <-chan hal.Event {
	return d.irq
}

func (d *Device) Commit(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.valid(index) {
		d.commits[index]++
	}
}

// Inject appends raw words to the receive queue of index.
func (d *Device) Inject(index int, words ...uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx[index] = append(d.rx[index], words...)
}

// InjectPacket queues a length prefix followed by packet.
func (d *Device) InjectPacket(index int, packet ...uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rx[index] = append(d.rx[index], uint32(len(packet)))
	d.rx[index] = append(d.rx[index], packet...)
}

// Raise fires the interrupt line without blocking.
func (d *Device) Raise(index int) {
	select {
	case d.irq <- hal.Event{Index: index}:
	default:
	}
}

func (d *Device) SetStatus(index int, v uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status[index] = v
}

// Sent returns a copy of every word written to index.
func (d *Device) Sent(index int) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.tx[index]...)
}

// Pending is the number of unread words on index.
func (d *Device) Pending(index int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rx[index])
}

func (d *Device) Reads(index int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[index]
}

func (d *Device) Enables(index int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enables[index]
}

func (d *Device) Commits(index int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits[index]
}

func (d *Device) valid(index int) bool {
	return index >= 0 && index < len(d.rx)
}
