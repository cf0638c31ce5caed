// Package header owns the packet-switched routing header word.
//
// Ownership boundary:
// - class/specific bit fields shared by both addressing modes
// - source-routed hop encoding, replay and the precomputed route table
// - distributed-routed absolute address fields
//
// Everything here is pure; no function touches hardware.
package header
