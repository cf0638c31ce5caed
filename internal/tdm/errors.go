package tdm

import "errors"

var (
	ErrNoChannels          = errors.New("tdm: adapter reports no channels")
	ErrInvalidMessageLen   = errors.New("tdm: invalid maximum message length")
	ErrChannelOutOfRange   = errors.New("tdm: channel out of range")
	ErrMessageTooLong      = errors.New("tdm: message exceeds maximum length")
	ErrEmptyMessage        = errors.New("tdm: empty message")
	ErrAlreadyServing      = errors.New("tdm: dispatch already serving")
	ErrInterruptLineClosed = errors.New("tdm: interrupt line closed")
)
