package frame

import (
	"errors"
	"testing"

	"github.com/danmuck/hybridmp/internal/testutil/testlog"
)

// wordQueue is a FIFO of raw register words.
type wordQueue struct {
	words []uint32
	reads int
}

func (q *wordQueue) WriteWord(w uint32) { q.words = append(q.words, w) }

func (q *wordQueue) ReadWord() uint32 {
	q.reads++
	if len(q.words) == 0 {
		return 0
	}
	w := q.words[0]
	q.words = q.words[1:]
	return w
}

func TestWriteReadPacketRoundTrip(t *testing.T) {
	testlog.Start(t)

	q := &wordQueue{}
	if err := WritePacket(q, 0xA0000011, []uint32{1, 2, 3}, Limits{MaxWords: 8}); err != nil {
		t.Fatalf("write packet: %v", err)
	}
	if q.words[0] != 4 {
		t.Fatalf("length prefix must count the header: %v", q.words)
	}

	buf := make([]uint32, 8)
	n, err := ReadPacket(q, buf)
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if n != 4 || buf[0] != 0xA0000011 || buf[1] != 1 || buf[3] != 3 {
		t.Fatalf("unexpected packet: n=%d buf=%v", n, buf[:n])
	}
	if n, err := ReadPacket(q, buf); n != 0 || err != nil {
		t.Fatalf("expected empty queue, got n=%d err=%v", n, err)
	}
}

func TestReadPacketOverflowDrainsExactly(t *testing.T) {
	testlog.Start(t)

	q := &wordQueue{}
	if err := WriteRaw(q, []uint32{9, 8, 7, 6, 5}, Limits{}); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	if err := WriteRaw(q, []uint32{42}, Limits{}); err != nil {
		t.Fatalf("write raw: %v", err)
	}

	buf := []uint32{0xdead, 0xbeef, 0xcafe}
	q.reads = 0
	n, err := ReadPacket(q, buf)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if n != 5 || q.reads != 6 {
		t.Fatalf("expected length 5 and 6 register reads, got n=%d reads=%d", n, q.reads)
	}
	if buf[0] != 0xdead || buf[2] != 0xcafe {
		t.Fatalf("buffer modified on overflow: %v", buf)
	}

	n, err = ReadPacket(q, buf)
	if err != nil || n != 1 || buf[0] != 42 {
		t.Fatalf("next packet not aligned after drain: n=%d err=%v buf=%v", n, err, buf)
	}
}

func TestWriteLimits(t *testing.T) {
	testlog.Start(t)

	q := &wordQueue{}
	if err := WritePacket(q, 1, make([]uint32, 4), Limits{MaxWords: 4}); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
	if err := WriteRaw(q, nil, Limits{}); !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
	if err := WriteHeaderless(q, nil, Limits{}); !errors.Is(err, ErrEmptyPacket) {
		t.Fatalf("expected ErrEmptyPacket, got %v", err)
	}
	if len(q.words) != 0 {
		t.Fatalf("rejected writes must not touch the queue: %v", q.words)
	}

	if err := WriteHeaderless(q, []uint32{5, 6}, Limits{MaxWords: 2}); err != nil {
		t.Fatalf("write headerless: %v", err)
	}
	if len(q.words) != 2 || q.words[0] != 5 {
		t.Fatalf("headerless write must not add a prefix: %v", q.words)
	}
}
