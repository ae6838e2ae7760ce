// Package harness provides conformance testing for dialogue domains.
//
// The harness compiles a CUE domain, anchors the rules a scenario
// names, executes query steps against them, and checks the scenario's
// expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	domain: path/to/domain.cue
//	evidence: "intent=checkout"
//	steps:
//	  - kind: prob
//	    rule: confirm
//	    input: "intent=checkout"
//	    head: "a_m:=confirm"
//	    expect: 0.75
//	  - kind: distribution
//	    rule: confirm
//	    input: "intent=checkout"
//	    rows:
//	      - effect: "a_m:=confirm"
//	        weight: 0.75
//	      - effect: "a_m:=clarify"
//	        weight: 0.25
//	  - kind: utility
//	    rule: reward
//	    input: "basket=full ^ a_m=confirm"
//	    expect: 2
//	  - kind: sample
//	    rule: confirm
//	    n: 25
//	    seed: 7
//	    allowed: ["a_m:=confirm", "a_m:=clarify"]
//	    record: true
//
// # Step Kinds
//
// The following step kinds are supported:
//
//   - prob: Queries the probability of one head effect and compares it
//     against expect within tolerance
//   - distribution: Builds the full conditional table and compares it
//     row for row against rows (extra or missing rows fail)
//   - utility: Queries the additive utility of the input and compares
//     it against expect within tolerance
//   - sample: Draws n times with a fixed seed, checks every draw is
//     admissible, and optionally records the draws to a session store
//
// # Deterministic Testing
//
// All scenarios execute deterministically so golden snapshot comparison
// is possible:
//
//   - Sample steps seed their own source (never the global one)
//   - Recording uses a fixed session token (scenario.session_token) and
//     a logical clock starting at zero
//   - The recording store is in-memory SQLite, isolated per step
//
// Golden snapshots deliberately omit the drawn effects themselves:
// draw sequences depend on the runtime's generator, while draw counts,
// recording totals, and verification outcomes do not.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/checkout.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
