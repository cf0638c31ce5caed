// Package hal is the boundary between the transport engines and the network
// adapter hardware of one tile.
//
// A Device models the register file of one adapter: an info register, and
// per endpoint (or channel) a send, receive, enable and status register. The
// adapter's interrupt line is modelled as a channel of Events; an engine's
// dispatch routine consumes it on a single goroutine, so receive handling
// for one transport is never re-entered.
//
// Critical stands in for globally disabling interrupts. Every transmit holds
// it for the whole packet so that length, header and payload words of two
// sends never interleave on a queue.
package hal

import "sync"

// Event reports that the adapter has data pending. Index is the endpoint or
// channel that raised it, or -1 when the hardware does not say.
type Event struct {
	Index int
}

// Device is the register interface of one network adapter.
type Device interface {
	// Info returns the raw info register.
	Info() uint32
	// Write stores one word into the send register of index.
	Write(index int, word uint32)
	// Read loads one word from the receive register of index.
	Read(index int) uint32
	// Enable sets the enable register of index.
	Enable(index int)
	// Status returns the status register of index.
	Status(index int) uint32
	// Interrupts is the adapter's interrupt line.
	Interrupts() <-chan Event
}

// Committer is implemented by adapters that need an explicit end-of-message
// mark on headerless queues.
type Committer interface {
	Commit(index int)
}

// Platform exposes the identity and topology facts of the running tile.
type Platform interface {
	TileID() int
	NumTiles() int
	// MaxPacketSize is the largest packet, in words, the NoC carries.
	MaxPacketSize() int
	// RankTile maps a core rank to the tile running it.
	RankTile(rank int) (int, bool)
	Critical() *Critical
}

// Critical serialises hardware queue access on one tile.
type Critical struct {
	mu sync.Mutex
}

// Do runs fn with the critical section held.
func (c *Critical) Do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// Queue binds one endpoint or channel of a Device to the frame reader and
// writer interfaces.
type Queue struct {
	dev   Device
	index int
}

func QueueOf(dev Device, index int) Queue {
	return Queue{dev: dev, index: index}
}

func (q Queue) WriteWord(w uint32) {
	q.dev.Write(q.index, w)
}

func (q Queue) ReadWord() uint32 {
	return q.dev.Read(q.index)
}
