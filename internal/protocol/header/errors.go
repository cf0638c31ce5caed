package header

import "errors"

var (
	ErrInvalidMesh    = errors.New("header: invalid mesh dimensions")
	ErrInvalidLink    = errors.New("header: invalid link")
	ErrRouteTooLong   = errors.New("header: route does not fit source-routing field")
	ErrTileOutOfRange = errors.New("header: tile out of range")
)
