package frame

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPacket    = errors.New("frame: empty packet")
	ErrPacketTooLarge = errors.New("frame: packet too large")
	ErrOverflow       = errors.New("frame: packet exceeds receive buffer")
	ErrMissingHeader  = errors.New("frame: raw packet has no header word")
)

// Writer is the transmit register of one hardware queue.
type Writer interface {
	WriteWord(w uint32)
}

// Reader is the receive register of one hardware queue. A read at a packet
// boundary returns the packet length, zero when the queue is empty.
type Reader interface {
	ReadWord() uint32
}

// Limits constrains packet sizes in words, length prefix excluded.
type Limits struct {
	MaxWords int
}

func (l Limits) check(words int) error {
	if words <= 0 {
		return ErrEmptyPacket
	}
	if l.MaxWords > 0 && words > l.MaxWords {
		return fmt.Errorf("%w: %d words, limit %d", ErrPacketTooLarge, words, l.MaxWords)
	}
	return nil
}

// WritePacket writes length, header and payload. The length prefix counts
// the header word.
func WritePacket(w Writer, header uint32, payload []uint32, limits Limits) error {
	if err := limits.check(len(payload) + 1); err != nil {
		return err
	}
	w.WriteWord(uint32(len(payload) + 1))
	w.WriteWord(header)
	for _, word := range payload {
		w.WriteWord(word)
	}
	return nil
}

// WriteRaw writes length and packet; packet[0] must already be a header.
func WriteRaw(w Writer, packet []uint32, limits Limits) error {
	if len(packet) == 0 {
		return ErrMissingHeader
	}
	if err := limits.check(len(packet)); err != nil {
		return err
	}
	w.WriteWord(uint32(len(packet)))
	for _, word := range packet {
		w.WriteWord(word)
	}
	return nil
}

// WriteHeaderless writes payload words only. Message boundaries are owned by
// the fabric schedule.
func WriteHeaderless(w Writer, payload []uint32, limits Limits) error {
	if err := limits.check(len(payload)); err != nil {
		return err
	}
	for _, word := range payload {
		w.WriteWord(word)
	}
	return nil
}

// ReadPacket reads one packet into buf and returns its length. An empty
// queue yields (0, nil). A packet longer than buf is drained word by word
// and reported as ErrOverflow with its length; buf is left untouched.
func ReadPacket(r Reader, buf []uint32) (int, error) {
	n := int(r.ReadWord())
	if n == 0 {
		return 0, nil
	}
	if n > len(buf) {
		Drain(r, n)
		return n, fmt.Errorf("%w: %d words, capacity %d", ErrOverflow, n, len(buf))
	}
	for i := 0; i < n; i++ {
		buf[i] = r.ReadWord()
	}
	return n, nil
}

// Drain discards exactly n words.
func Drain(r Reader, n int) {
	for i := 0; i < n; i++ {
		r.ReadWord()
	}
}
