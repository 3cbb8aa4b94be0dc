package engine

import "time"

// Persona is one of the three fixed interrogation subjects.
// Personas are configured at session start and never created or destroyed
// during play.
type Persona struct {
	ID   string
	Name string
}

// Polarity classifies what a claim asserts about its subject
type Polarity string

const (
	PolarityAffirm  Polarity = "affirm"
	PolarityDeny    Polarity = "deny"
	PolarityUnknown Polarity = "unknown"
)

// Claim is a structured (subject, polarity) fact attributed to a persona at a
// specific turn. Claims are immutable once extracted; the session owns them
// for its lifetime.
type Claim struct {
	Speaker   string    `json:"speaker"`
	Subject   string    `json:"subject"`
	Polarity  Polarity  `json:"polarity"`
	RawText   string    `json:"raw_text"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
}

// ContradictionKind distinguishes a persona reversing their own story from
// two personas disagreeing with each other
type ContradictionKind string

const (
	KindSelf  ContradictionKind = "self"
	KindCross ContradictionKind = "cross"
)

// Contradiction pairs two committed claims on the same subject with opposite
// polarity. Earlier holds the claim that was already in the store; Later holds
// the claim whose arrival triggered detection.
type Contradiction struct {
	Kind           ContradictionKind `json:"kind"`
	Earlier        Claim             `json:"earlier"`
	Later          Claim             `json:"later"`
	DetectedAtTurn int               `json:"detected_at_turn"`
}

// Tier buckets a cumulative suspicion score for display
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Score is a persona's cumulative suspicion plus its derived tier
type Score struct {
	Points float64 `json:"points"`
	Tier   Tier    `json:"tier"`
}
