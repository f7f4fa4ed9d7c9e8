// Package guard is the inspection facade: it wires the session store,
// pattern tables, plane registry, audit emitter, and metrics into a single
// Guard that turns (prompt, session) pairs into decisions.
//
// A Guard is constructed once from configuration and is safe for concurrent
// use. Inspect evaluates one prompt synchronously on the caller's
// goroutine; InspectBatch fans independent items out to a fixed worker pool
// and returns decisions in input order. Both run the same pipeline core,
// so identical inputs produce identical verdicts regardless of the calling
// convention.
//
// Every inspection returns a well-formed Decision. Plane faults, store
// outages, and panics are absorbed into plane results per the mode's
// failure policy; the only error a caller sees at request time is its own
// context cancellation.
//
// Example:
//
//	g, err := guard.New(config.DefaultConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	dec, err := g.Inspect(ctx, prompt, guard.SessionRef{
//		SessionID: "sess-42",
//		UserID:    "user-7",
//		IPAddress: "203.0.113.10",
//	})
//	if err != nil {
//		return err // caller cancellation only
//	}
//	if !dec.Allowed {
//		return respond(dec.SafeResponse)
//	}
package guard
