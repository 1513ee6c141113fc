/*
Package shaper drains requests from an input queue into an output queue at a
bounded rate, dropping what the leaky bucket rejects.

Two loops are provided. Flow charges every request against one bucket.
Items charges each request against the bucket of the registry record named
by the request's ID, at that record's own rate.

Each iteration of a loop checks the halt signal, polls the input queue,
decides admission for one request at the current tick, and pushes admitted
requests to the output. A push that fails on a full output queue refunds the
admission, so a request that never left does not consume capacity. When the
input is empty the loop waits according to its PollPolicy.

Basic usage:

	in := queue.NewRing[shaper.Request](1024)
	out := queue.NewRing[shaper.Request](64)
	halt := shaper.NewHalt()

	flow, err := shaper.NewFlow(shaper.FlowConfig{
		Input:  in,
		Output: out,
		Rate:   100,
		Burst:  10,
		Halt:   halt,
	})
	if err != nil {
		log.Fatal(err)
	}
	go flow.Run(ctx)

	in.TryPut(shaper.Message{Key: "a", Payload: data}, false)
	// ...
	halt.Set()

Several Items loops can share one registry when Shared is set; every
dispatch is then done under the record's lock. A lock failure is logged and
counted and the dispatch proceeds without mutual exclusion. Use Group to run
and wait for several loops.
*/
package shaper
