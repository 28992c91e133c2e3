// Package sim provides the discrete-step simulation engine for bubble
// populations at a liquid surface.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - bubble.go: the Bubble attribute record and the Population it lives in
//   - merge.go: the coalescence engine (pair merge rule + nearest-pair sweep)
//   - engine.go: the step loop (create, burst, move, merge, age, snapshot)
//
// # Architecture
//
// The sim package owns the engine and the Variant policy interface;
// supporting concerns live in sub-packages:
//   - sim/dist/: count samplers, burst hazards and lifetime laws
//   - sim/analysis/: read-only aggregation over histories (histograms,
//     moments, per-step series, autocorrelation decay times)
//   - sim/store/: durable run persistence behind the Store interface
//
// A concrete simulation is a Variant (create/burst/move/format policies
// plus the merge bookkeeping template) together with a Params value; the
// standard variants are registered by name in variant.go.
//
// # Determinism
//
// All randomness flows from Params.Seed through a PartitionedRNG that
// derives one stream per subsystem ("population" for the variant phases,
// "coalescence" for the merge gate), so runs reproduce bit-for-bit from
// the seed and adding draws to one phase never perturbs another. The
// engine is single-threaded; parallel ensembles run one engine each.
package sim
