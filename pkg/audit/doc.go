// Package audit emits one structured record per security decision.
//
// # Overview
//
// The guard hands each finalized decision to an Emitter, which enqueues a
// Record on a bounded channel and returns immediately; a background worker
// drains the channel into the configured Sink. Inspection latency therefore
// never includes audit I/O. When the buffer is full the record is dropped
// and counted rather than blocking the request path.
//
// # Record Shape
//
// Records marshal to a fixed JSON shape consumed by downstream SIEM
// tooling:
//
//	{
//	  "event": "security_decision",
//	  "trace_id": "…",
//	  "timestamp": "2025-06-01T12:00:00Z",
//	  "allowed": false,
//	  "action": "BLOCK",
//	  "rationale": "…",
//	  "plane_results": {"identity": {"passed": true, "risk_score": 0}},
//	  "regulatory": {"GDPR": "Art. 4(1)"}
//	}
//
// # Sinks
//
// Three sinks ship with the package: SlogSink writes records through the
// process logger, MemorySink keeps a bounded in-memory ring (tests,
// embedding), and storage.SQLiteStore persists records durably with
// retention pruning driven by audit/retention.
package audit
