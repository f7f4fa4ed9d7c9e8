package session

import (
	"time"
)

// Trust score bounds. A fresh session starts at MaxTrust and can only be
// lowered by drift penalties or explicit store mutation.
const (
	MinTrust = 0
	MaxTrust = 100
)

// DriftPenalty is the trust deduction applied when a session's client
// fingerprint changes mid-conversation.
const DriftPenalty = 50

// Attributes are the caller-observed transport characteristics of the
// client behind a session. They feed the fingerprint hash; the guard never
// interprets them individually.
type Attributes struct {
	UserID         string `json:"user_id"`
	IPAddress      string `json:"ip_address"`
	UserAgent      string `json:"user_agent"`
	TLSFingerprint string `json:"tls_fingerprint"`
}

// BurnSample is one token-consumption event inside the burn window.
type BurnSample struct {
	// At is the sample timestamp in unix nanoseconds.
	At int64 `json:"at"`

	// Tokens is the estimated token count consumed at that instant.
	Tokens int64 `json:"tokens"`
}

// Session is the security state of one conversation. It is a plain value:
// stores own all locking, and callers receive private copies.
type Session struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	IPAddress       string       `json:"ip_address"`
	UserAgent       string       `json:"user_agent"`
	TLSFingerprint  string       `json:"tls_fingerprint"`
	TrustScore      int          `json:"trust_score"`
	FingerprintHash string       `json:"fingerprint_hash"`
	RecentPrompts   []string     `json:"recent_prompts"`
	BurnWindow      []BurnSample `json:"burn_window"`
	CreatedAt       time.Time    `json:"created_at"`
	LastSeenAt      time.Time    `json:"last_seen_at"`

	// Version is the store's compare-and-set token. It is incremented by
	// every atomic update and must not be modified by callers.
	Version uint64 `json:"version"`
}

// New returns a fresh session for the given ID and transport attributes.
// New sessions start at full trust with an empty history and burn window.
// The fingerprint hash is left empty so the identity plane baselines it on
// first evaluation.
func New(id string, attrs Attributes, now time.Time) *Session {
	return &Session{
		ID:             id,
		UserID:         attrs.UserID,
		IPAddress:      attrs.IPAddress,
		UserAgent:      attrs.UserAgent,
		TLSFingerprint: attrs.TLSFingerprint,
		TrustScore:     MaxTrust,
		CreatedAt:      now,
		LastSeenAt:     now,
	}
}

// Clone returns a deep copy of the session. Stores hand out clones so
// callers can never mutate shared state.
func (s *Session) Clone() *Session {
	cp := *s
	if s.RecentPrompts != nil {
		cp.RecentPrompts = make([]string, len(s.RecentPrompts))
		copy(cp.RecentPrompts, s.RecentPrompts)
	}
	if s.BurnWindow != nil {
		cp.BurnWindow = make([]BurnSample, len(s.BurnWindow))
		copy(cp.BurnWindow, s.BurnWindow)
	}
	return &cp
}

// AdjustTrust applies delta to the trust score, clamping the result to
// [MinTrust, MaxTrust].
func (s *Session) AdjustTrust(delta int) {
	s.TrustScore += delta
	if s.TrustScore < MinTrust {
		s.TrustScore = MinTrust
	}
	if s.TrustScore > MaxTrust {
		s.TrustScore = MaxTrust
	}
}

// PushPrompt appends a normalized prompt to the bounded recent-prompt
// history, evicting the oldest entries beyond cap. Oldest-first order is
// preserved: the most recent prompt is always last.
func (s *Session) PushPrompt(prompt string, cap int) {
	s.RecentPrompts = append(s.RecentPrompts, prompt)
	if cap > 0 && len(s.RecentPrompts) > cap {
		s.RecentPrompts = s.RecentPrompts[len(s.RecentPrompts)-cap:]
	}
}

// RecordBurn appends a token-consumption sample at now and evicts samples
// strictly older than the window. A sample exactly at the window boundary
// is retained.
func (s *Session) RecordBurn(now time.Time, tokens int64, window time.Duration) {
	s.BurnWindow = append(s.BurnWindow, BurnSample{At: now.UnixNano(), Tokens: tokens})
	s.evictBurn(now, window)
}

// BurnRate returns the effective token consumption rate in tokens per
// second: the sum of in-window samples divided by the window duration.
// It does not mutate the window, so it is safe on session copies.
func (s *Session) BurnRate(now time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	cutoff := now.Add(-window).UnixNano()

	var sum int64
	for _, sample := range s.BurnWindow {
		if sample.At >= cutoff {
			sum += sample.Tokens
		}
	}
	return float64(sum) / window.Seconds()
}

// evictBurn drops samples strictly older than the window.
func (s *Session) evictBurn(now time.Time, window time.Duration) {
	cutoff := now.Add(-window).UnixNano()

	kept := s.BurnWindow[:0]
	for _, sample := range s.BurnWindow {
		if sample.At >= cutoff {
			kept = append(kept, sample)
		}
	}
	s.BurnWindow = kept
}
