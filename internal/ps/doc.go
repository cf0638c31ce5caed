// Package ps is the packet-switched message-passing driver.
//
// An Engine owns one tile's packet-switched adapter: endpoint enable state,
// the shared receive buffer, the class handler table, the readiness table and
// the source-routing table. Every packet carries a routing header whose top
// bits select the message class; class 7 is reserved for the readiness
// handshake.
//
// Startup order:
//
//	eng, err := ps.New(dev, platform)
//	err = eng.BuildRoutingTable(xDim, yDim) // before the first source-routed send
//	err = eng.RegisterHandler(0, handlers.Func(onMessage))
//	err = eng.Enable(0)
//	go eng.Serve(ctx)
//
// Readiness is discovered by polling: QueryReady returns false and emits a
// probe until the remote adapter's reply has been dispatched, after which it
// returns true forever.
//
// An oversized packet is drained and dropped without notifying any handler.
// Handlers that reassemble multi-packet frames see a gap in that case and
// must resynchronise on their own.
package ps
