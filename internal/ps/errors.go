package ps

import "errors"

var (
	ErrNoEndpoints         = errors.New("ps: adapter reports no endpoints")
	ErrTooManyEndpoints    = errors.New("ps: too many endpoints for readiness table")
	ErrNoTiles             = errors.New("ps: platform reports no tiles")
	ErrTooManyTiles        = errors.New("ps: tile count exceeds distributed header range")
	ErrInvalidPacketSize   = errors.New("ps: invalid maximum packet size")
	ErrEndpointOutOfRange  = errors.New("ps: endpoint out of range")
	ErrTileOutOfRange      = errors.New("ps: tile out of range")
	ErrRankUnknown         = errors.New("ps: unknown rank")
	ErrClassOutOfRange     = errors.New("ps: class out of range")
	ErrReservedClass       = errors.New("ps: class reserved for readiness")
	ErrSpecificOutOfRange  = errors.New("ps: specific out of range")
	ErrNoRoutingTable      = errors.New("ps: routing table not built")
	ErrRoutingTableBuilt   = errors.New("ps: routing table already built")
	ErrAlreadyServing      = errors.New("ps: dispatch already serving")
	ErrInterruptLineClosed = errors.New("ps: interrupt line closed")
)
