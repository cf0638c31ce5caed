package fabric

import "errors"

var (
	ErrInvalidTiles     = errors.New("fabric: invalid tile count")
	ErrInvalidEndpoints = errors.New("fabric: invalid endpoint count")
	ErrInvalidChannels  = errors.New("fabric: invalid channel count")
	ErrInvalidPacket    = errors.New("fabric: invalid packet size")
	ErrInvalidMessage   = errors.New("fabric: invalid message length")
	ErrRouteTooLong     = errors.New("fabric: mesh diameter exceeds source route field")
	ErrInvalidLink      = errors.New("fabric: invalid tdm link")
	ErrInvalidRank      = errors.New("fabric: invalid rank mapping")
	ErrTileOutOfRange   = errors.New("fabric: tile out of range")
)
