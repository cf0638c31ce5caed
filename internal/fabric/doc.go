// Package fabric is an in-process model of the hybrid NoC.
//
// Every tile gets a packet-switched adapter and a TDM adapter that implement
// hal.Device with the register semantics of the hardware: the send register
// takes a length word followed by that many words, the receive register
// yields the pending packet's length followed by its words and 0 when empty,
// and the info registers are encoded the way the engines decode them.
//
// Packet-switched traffic is routed by header. Source-routed headers are
// followed hop by hop from the sending tile; distributed headers carry the
// destination tile and link directly. Probes of the readiness class that
// reach an enabled endpoint are answered by the adapter with a reply
// addressed back to the prober.
//
// TDM traffic follows the static link schedule: the words written to a
// channel travel to the peer channel when the channel is committed.
package fabric
