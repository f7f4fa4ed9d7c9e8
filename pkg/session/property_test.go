//go:build property
// +build property

// Package session_test contains property-based tests for the session
// trust, history, and burn-window invariants.
package session_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"mercator-hq/ganymede/pkg/session"
)

// TestTrustScoreBounds verifies trust stays within its bounds under any
// adjustment sequence.
// Property: for all delta sequences, 0 <= TrustScore <= 100
func TestTrustScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("trust score stays within [0, 100]", prop.ForAll(
		func(deltas []int) bool {
			sess := session.New("prop", session.Attributes{}, time.Unix(0, 0))
			for _, d := range deltas {
				sess.AdjustTrust(d)
				if sess.TrustScore < session.MinTrust || sess.TrustScore > session.MaxTrust {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-300, 300)),
	))

	properties.TestingRun(t)
}

// TestDriftPenaltyExactness verifies the drift deduction is exact up to
// the lower clamp.
// Property: AdjustTrust(-DriftPenalty) == max(0, trust-DriftPenalty)
func TestDriftPenaltyExactness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("drift penalty deducts exactly, clamped at zero", prop.ForAll(
		func(start int) bool {
			sess := session.New("prop", session.Attributes{}, time.Unix(0, 0))
			sess.TrustScore = start

			sess.AdjustTrust(-session.DriftPenalty)

			want := start - session.DriftPenalty
			if want < session.MinTrust {
				want = session.MinTrust
			}
			return sess.TrustScore == want
		},
		gen.IntRange(session.MinTrust, session.MaxTrust),
	))

	properties.TestingRun(t)
}

// TestRecentPromptsBounded verifies the prompt history never exceeds its
// cap and always ends with the newest entry.
// Property: len(history) <= cap && history[len-1] == last pushed
func TestRecentPromptsBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("prompt history is FIFO-bounded", prop.ForAll(
		func(prompts []string, cap int) bool {
			sess := session.New("prop", session.Attributes{}, time.Unix(0, 0))
			for _, p := range prompts {
				sess.PushPrompt(p, cap)
				if len(sess.RecentPrompts) > cap {
					return false
				}
				if sess.RecentPrompts[len(sess.RecentPrompts)-1] != p {
					return false
				}
			}

			// The retained entries are exactly the newest ones, in order.
			keep := len(prompts)
			if keep > cap {
				keep = cap
			}
			tail := prompts[len(prompts)-keep:]
			for i, p := range tail {
				if sess.RecentPrompts[i] != p {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

// TestBurnWindowEviction verifies recording a sample drops everything
// strictly older than the window and keeps everything inside it.
// Property: after RecordBurn(t_n), samples retained iff t >= t_n - window
func TestBurnWindowEviction(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("burn window retains exactly the in-window samples", prop.ForAll(
		func(gaps []int, windowSecs int) bool {
			window := time.Duration(windowSecs) * time.Second
			sess := session.New("prop", session.Attributes{}, base)

			now := base
			for _, gap := range gaps {
				now = now.Add(time.Duration(gap) * time.Second)
				sess.RecordBurn(now, 10, window)
			}

			cutoff := now.Add(-window).UnixNano()
			for _, sample := range sess.BurnWindow {
				if sample.At < cutoff {
					return false
				}
			}

			// The most recent sample always survives its own recording.
			if len(gaps) > 0 && len(sess.BurnWindow) == 0 {
				return false
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 30)),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}

// TestBurnRateMatchesWindowSum verifies the reported rate is the exact
// window sum over the window duration.
// Property: BurnRate(now) == sum(in-window tokens) / window seconds
func TestBurnRateMatchesWindowSum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("burn rate equals window sum over duration", prop.ForAll(
		func(tokens []int, windowSecs int) bool {
			window := time.Duration(windowSecs) * time.Second
			sess := session.New("prop", session.Attributes{}, base)

			// All samples land at the same instant, so all are in-window.
			var sum int64
			for _, tk := range tokens {
				sess.RecordBurn(base, int64(tk), window)
				sum += int64(tk)
			}

			want := float64(sum) / window.Seconds()
			return sess.BurnRate(base, window) == want
		},
		gen.SliceOf(gen.IntRange(1, 1000)),
		gen.IntRange(1, 120),
	))

	properties.TestingRun(t)
}

// TestFingerprintDeterminism verifies the fingerprint hash is a pure
// function of the attributes and separates its fields.
// Property: Fingerprint(a) == Fingerprint(a); shifting bytes across the
// field boundary changes the hash
func TestFingerprintDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fingerprint is deterministic and field-separated", prop.ForAll(
		func(ip, ua, tls string) bool {
			a := session.Attributes{IPAddress: ip, UserAgent: ua, TLSFingerprint: tls}
			if a.Fingerprint() != a.Fingerprint() {
				return false
			}

			if ua != "" {
				shifted := session.Attributes{IPAddress: ip + ua, TLSFingerprint: tls}
				if shifted.Fingerprint() == a.Fingerprint() {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestCloneIndependence verifies mutations of a clone never leak into the
// original.
// Property: Clone(s) mutations leave s unchanged
func TestCloneIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("clone mutations do not alias the original", prop.ForAll(
		func(prompts []string, delta int) bool {
			sess := session.New("prop", session.Attributes{}, time.Unix(0, 0))
			for _, p := range prompts {
				sess.PushPrompt(p, 10)
			}
			origTrust := sess.TrustScore
			origLen := len(sess.RecentPrompts)

			// Identifiers never contain '@', so the sentinels cannot
			// collide with generated prompts.
			cl := sess.Clone()
			cl.AdjustTrust(delta)
			cl.PushPrompt("@mutation", 10)
			if len(cl.RecentPrompts) > 1 {
				cl.RecentPrompts[0] = "@overwritten"
			}

			if sess.TrustScore != origTrust || len(sess.RecentPrompts) != origLen {
				return false
			}
			for _, p := range sess.RecentPrompts {
				if p == "@overwritten" || p == "@mutation" {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, gen.Identifier()),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
