package header

import "fmt"

const (
	// NumClasses is the number of message classes addressable by the class field.
	NumClasses = 8
	// ReservedClass carries the readiness handshake and is never handed to
	// application handlers.
	ReservedClass = NumClasses - 1

	// MaxSpecific is the largest value of the class-specific subfield.
	MaxSpecific = specificMask

	classShift    = 29
	classMask     = 0x7
	specificShift = 24
	specificMask  = 0x1f
)

// RoutingMode selects how the addressing payload of a header is laid out.
type RoutingMode uint8

const (
	SourceRouted      RoutingMode = 0
	DistributedRouted RoutingMode = 1
)

func (m RoutingMode) String() string {
	switch m {
	case SourceRouted:
		return "source"
	case DistributedRouted:
		return "distributed"
	default:
		return fmt.Sprintf("routing(%d)", uint8(m))
	}
}

// ParseRoutingMode maps a configuration value onto a RoutingMode.
func ParseRoutingMode(raw string) (RoutingMode, error) {
	switch raw {
	case "source", "sr":
		return SourceRouted, nil
	case "distributed", "dr":
		return DistributedRouted, nil
	default:
		return 0, fmt.Errorf("header: unknown routing mode %q", raw)
	}
}

// Header is one routing header word.
type Header uint32

// Address names one endpoint on one tile.
type Address struct {
	Tile     int
	Endpoint int
}

func (h Header) Class() int {
	return int(uint32(h)>>classShift) & classMask
}

func (h Header) Specific() int {
	return int(uint32(h)>>specificShift) & specificMask
}

// Route returns the source-routing hop field.
func (h Header) Route() uint32 {
	return uint32(h) & routeMask
}

// WithClass replaces the class and specific fields, leaving addressing intact.
func (h Header) WithClass(class, specific int) Header {
	cleared := uint32(h) &^ (classMask<<classShift | specificMask<<specificShift)
	return Header(cleared | classBits(class, specific))
}

// Overlay places class and specific on top of a bare source route.
func Overlay(route uint32, class, specific int) Header {
	return Header(route&routeMask | classBits(class, specific))
}

func classBits(class, specific int) uint32 {
	return uint32(class&classMask)<<classShift | uint32(specific&specificMask)<<specificShift
}

// ValidClass reports whether class fits the class field.
func ValidClass(class int) bool {
	return class >= 0 && class < NumClasses
}
