// Package harness provides scenario-driven conformance testing for the
// engine and its module resolver.
//
// Scenarios are YAML files that declare package fixtures, a flow of script
// evaluations, and assertions over the resolver trace. The harness writes
// the fixtures into a temporary search root, runs the flow against a fresh
// engine, and validates the recorded trace.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	packages:
//	  - name: pkg1
//	    version: 1.0.0
//	    modules:
//	      - name: m1
//	        source: |
//	          exports.value = 10;
//	steps:
//	  - eval: "imports.require('pkg1.m1').value"
//	    expect:
//	      kind: Int
//	      value: "10"
//	  - eval: "imports.require('missing.m')"
//	    expect:
//	      error: package_not_found
//	assertions:
//	  - type: trace_contains
//	    kind: resolved
//	    package: pkg1
//	    module: m1
//	  - type: trace_count
//	    kind: cache_hit
//	    count: 1
//	  - type: trace_order
//	    kinds: [package_lookup, manifest_load, resolve_start, resolved]
//
// # Deterministic Testing
//
// Scenarios execute with a fixed engine ID generator and a fresh trace
// collector, so the same scenario produces identical traces across runs.
// Fixture paths appearing in trace details are rewritten to $ROOT before
// golden comparison.
package harness
