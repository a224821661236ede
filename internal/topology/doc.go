// Package topology loads declarative factory layouts written in CUE and
// builds them into an engine.Simulation.
//
// A topology directory holds one CUE package with four component maps and
// an ordered link list:
//
//	source: coal: {material: "coal", rate: "1", outputs: 1}
//	belt: feed: {capacity: 10}
//	building: smelter: {inputs: 1, outputs: 1, belts: [10]}
//	sink: yard: {}
//	link: [{from: "coal", to: "feed"}, {from: "feed", to: "smelter"}]
//
// Build creates components in kind order (sources, belts, buildings, sinks),
// each kind in declaration order, then applies links in list order. That
// ordering fixes the clock subscription order and therefore the outcome of
// every tick.
package topology
