// Package tdm is the message-passing driver for the time-division-multiplexed
// fabric.
//
// Channels are statically scheduled point-to-point connections, so messages
// carry no header: the channel index alone identifies sender and class. The
// receive side hands each message to the handler registered for its channel.
//
// On adapters that implement hal.Committer, Send commits the channel after
// the last word to mark the message boundary.
package tdm
