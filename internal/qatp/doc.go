// Package qatp implements the energy transfer cycle simulation.
//
// A [System] owns four stateful components and couples an external
// (classical) input to their state in a single linear cycle:
//
//   - [Reservoir]: bounded charge store with lossy discharge
//   - [Condensate]: secondary store that decays on release
//   - [TransportChain]: ordered lossy transfer nodes
//   - [ActivationUnit]: threshold unit with seeded sub-threshold tunneling
//
// # Example
//
//	sys, err := qatp.NewSystem(qatp.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	activated, snap, err := sys.HybridProcess(3.0)
//
// # Thread Safety
//
// Components are NOT thread-safe on their own. A [System] serializes whole
// cycles and snapshot reads behind one mutex, so a single System may be
// shared between goroutines. Independent Systems share no state.
package qatp
