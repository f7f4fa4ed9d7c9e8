// Package planes implements the security planes evaluated by the guard
// pipeline.
//
// # Overview
//
// A plane is a self-contained policy evaluator: it receives the request
// under inspection plus a view of the caller's session and produces a
// PlaneResult (pass/fail verdict, risk score, free-text details). Five
// built-in planes cover the baseline concerns:
//
//   - Identity: trust scoring and fingerprint drift detection
//   - Intent: pattern-based cognitive threat detection
//   - Context: multi-turn attack correlation (split payloads, poisoning)
//   - Economics: token burn-rate throttling
//   - Compliance: sensitive-data annotation (never blocks)
//
// Plugin planes implement the same Plane interface and attach at one of
// six phase markers relative to the built-ins:
//
//	PRE_IDENTITY -> Identity -> POST_IDENTITY -> Intent -> POST_INTENT
//	  -> Context -> POST_CONTEXT -> Economics -> POST_ECONOMICS
//	  -> Compliance -> POST_COMPLIANCE
//
// # Session Mutation
//
// Planes that touch session state (Identity, Context, Economics) mutate
// it exclusively through Evaluation.Update, which routes the mutation
// through the session store's atomic read-modify-write primitive. Two
// concurrent requests against the same session therefore never interleave
// a trust decrement or a history append.
package planes
