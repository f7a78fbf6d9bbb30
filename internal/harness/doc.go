// Package harness runs fixture regression scenarios against the reservation
// database.
//
// A scenario mutates the database, queries the rows the logging triggers
// produced, and compares them with a fixture recorded from an earlier run.
// A single mismatch fails the scenario; there are no retries and no partial
// results.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: test_logs_events
//	description: "Adding a reservation logs the room and the date"
//	fixture: test_logs_events   # optional, defaults to name
//	mutate:
//	  - INSERT INTO calendrier VALUES ('D7',3020,'2200-04-05','girp2705','toto',30,35)
//	query: >-
//	  SELECT cip, numeropavillon, numerolocal, message FROM logs
//	  WHERE cip = 'girp2705' AND numeropavillon = 'D7' AND numerolocal = 3020
//	unordered: false            # optional, compare rows as a multiset
//
// Files are decoded strictly (unknown keys are rejected) and then validated
// against the CUE definition embedded in scenario.cue.
//
// # Isolation
//
// By default the harness resets the session before every scenario, so
// re-running a scenario gives the same rows. With WithReset(false) state
// carries over between scenarios and a rerun may see duplicate log rows
// or constraint violations.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/logs_events.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h := harness.New(session, fixture.NewStore("testdata/fixtures"))
//	result, err := h.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
