// Package engine implements the forgery tick simulation.
//
// A Simulation is a network of sources, belts, buildings and sinks driven by
// one Clock. Every component reacts to the clock's Second tick and announces
// readiness through its own event.Channel; a downstream consumer pulls on
// that announcement.
//
// ARCHITECTURE:
//
// Single Tick Driver:
// Exactly one goroutine delivers ticks (Simulation.Step or Simulation.Run).
// All reactions to a tick run synchronously and to completion before the
// next tick starts. This ensures:
// - Handler order is subscription (wiring) order
// - A readiness chain Source -> Belt -> Building -> Belt resolves within
//   the tick that triggered it
// - Runs with the same topology and tick count are identical
//
// Tick Processing Flow:
// 1. Clock.Tick increments time and publishes Second (then Minute, Hour)
// 2. Sources accrue production and publish MaterialReady per unit
// 3. Belts whose head item is due publish MaterialReady
// 4. Each MaterialReady makes the subscribed consumer call TryConsume,
//    which calls the producer's Supply
//
// INVARIANTS:
//
// Capacity: a belt never holds more than its capacity.
// Single accept: a belt accepts at most one item per tick.
// Transit delay: an item accepted at tick T is released no earlier than
// T + capacity. Because that is always in the future, a freshly accepted
// item is never re-offered in the tick it arrived.
// Backpressure: refusals are boolean results, silently retried on the next
// tick by the same wiring. Only malformed construction is an error.
package engine
