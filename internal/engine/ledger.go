package engine

// Weights are the fixed per-event score deltas. All deltas are additive and
// order-independent within a turn.
type Weights struct {
	// CrossContradiction is added when the persona is the later claimant in a
	// cross contradiction (they spoke against an already recorded claim)
	CrossContradiction float64 `json:"cross_contradiction"`
	// SelfContradiction is added when the persona reverses their own story
	SelfContradiction float64 `json:"self_contradiction"`
	// HotSubjectDenial is added per deny claim on the subject most central to
	// the mystery
	HotSubjectDenial float64 `json:"hot_subject_denial"`
}

// Thresholds map a cumulative score to a tier. Scores below Medium are low,
// scores above High are high, everything between is medium. Comparison is
// always on the cumulative score, never a single turn's delta.
type Thresholds struct {
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// DefaultWeights matches the canonical muffin scenario scoring
func DefaultWeights() Weights {
	return Weights{CrossContradiction: 3, SelfContradiction: 2, HotSubjectDenial: 1}
}

// DefaultThresholds buckets scores as low < 3, medium 3-6, high > 6
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 3, High: 6}
}

// Ledger turns contradictions and claim patterns into suspicion deltas.
// Scores only ever grow: evidence is never forgotten within a session, and a
// persona's score stays a pure function of the claims and contradictions
// involving them, so it can be recomputed by replay.
type Ledger struct {
	weights    Weights
	thresholds Thresholds
	hotSubject string
}

// NewLedger builds a ledger for the given weights and the scenario's hot
// subject (the thing that was stolen, typically). Negative weights from a
// hand-edited settings file are clamped to zero; scores must never decrease.
func NewLedger(w Weights, t Thresholds, hotSubject string) *Ledger {
	if w.CrossContradiction < 0 {
		w.CrossContradiction = 0
	}
	if w.SelfContradiction < 0 {
		w.SelfContradiction = 0
	}
	if w.HotSubjectDenial < 0 {
		w.HotSubjectDenial = 0
	}
	return &Ledger{weights: w, thresholds: t, hotSubject: hotSubject}
}

// Apply returns the persona's new cumulative score after one turn's claims
// and contradictions. Weights are non-negative, so the result never drops
// below the prior score.
func (l *Ledger) Apply(personaID string, claims []Claim, contras []Contradiction, prior float64) float64 {
	score := prior
	for _, c := range contras {
		switch c.Kind {
		case KindCross:
			if c.Later.Speaker == personaID {
				score += l.weights.CrossContradiction
			}
		case KindSelf:
			if c.Later.Speaker == personaID {
				score += l.weights.SelfContradiction
			}
		}
	}
	for _, c := range claims {
		if c.Speaker == personaID && c.Polarity == PolarityDeny && c.Subject == l.hotSubject {
			score += l.weights.HotSubjectDenial
		}
	}
	return score
}

// TierFor buckets a cumulative score
func (l *Ledger) TierFor(points float64) Tier {
	switch {
	case points < l.thresholds.Medium:
		return TierLow
	case points <= l.thresholds.High:
		return TierMedium
	default:
		return TierHigh
	}
}
