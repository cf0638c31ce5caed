package ps

import "sync/atomic"

type counters struct {
	sent             atomic.Uint64
	received         atomic.Uint64
	probes           atomic.Uint64
	readinessUpdates atomic.Uint64
	overflow         atomic.Uint64
	unhandled        atomic.Uint64
	undecoded        atomic.Uint64
}

// Stats is a point-in-time copy of an engine's counters.
type Stats struct {
	Sent             uint64 `json:"sent"`
	Received         uint64 `json:"received"`
	Probes           uint64 `json:"probes"`
	ReadinessUpdates uint64 `json:"readiness_updates"`
	DroppedOverflow  uint64 `json:"dropped_overflow"`
	DroppedUnhandled uint64 `json:"dropped_unhandled"`
	DroppedUndecoded uint64 `json:"dropped_undecoded"`
}

func (e *Engine) Stats() Stats {
	return Stats{
		Sent:             e.stats.sent.Load(),
		Received:         e.stats.received.Load(),
		Probes:           e.stats.probes.Load(),
		ReadinessUpdates: e.stats.readinessUpdates.Load(),
		DroppedOverflow:  e.stats.overflow.Load(),
		DroppedUnhandled: e.stats.unhandled.Load(),
		DroppedUndecoded: e.stats.undecoded.Load(),
	}
}
