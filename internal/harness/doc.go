// Package harness runs factory scenarios as executable checks.
//
// A scenario names a topology directory, a number of ticks and a list of
// assertions over the final state. The harness builds the topology into a
// fresh Simulation, records the run into an in-memory run log, ticks the
// clock and evaluates the assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: chain
//	description: "coal through two buildings"
//	topology: ../factories/chain   # relative to the scenario file
//	ticks: 72
//	run_id: test-run-chain         # optional, fixed for golden traces
//	assertions:
//	  - {type: delivered, component: yard, count: 10}
//	  - {type: produced, component: coal, count: 14}
//	  - {type: occupancy, component: plates, count: 0}
//	  - {type: busy, component: smelter, busy: true}
//
// # Assertion Types
//
//   - delivered: a sink has taken exactly count units
//   - produced: a source has produced exactly count units
//   - occupancy: a belt (including an internal belt "<building>/<n>") holds
//     exactly count units
//   - busy: a building's busy flag equals busy
//
// # Deterministic Testing
//
// Every scenario runs on a logical clock from tick 0 with a fixed run id, so
// the delivery trace is identical across runs and can be compared against a
// golden file:
//
//	tick=27 sink=yard kind=coal
//	tick=32 sink=yard kind=coal
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        fmt.Println(e)
//	    }
//	}
package harness
