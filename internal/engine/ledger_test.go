package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLedger() *Ledger {
	return NewLedger(DefaultWeights(), DefaultThresholds(), "possession")
}

func TestLedgerCrossWeightOnlyForLaterClaimant(t *testing.T) {
	l := testLedger()
	contra := Contradiction{
		Kind:    KindCross,
		Earlier: claim("Crumbs", "location", PolarityAffirm, 1),
		Later:   claim("Cherry", "location", PolarityDeny, 2),
	}

	assert.Equal(t, 3.0, l.Apply("Cherry", nil, []Contradiction{contra}, 0))
	// The earlier claimant is not penalized for being disagreed with
	assert.Equal(t, 0.0, l.Apply("Crumbs", nil, []Contradiction{contra}, 0))
}

func TestLedgerSelfWeight(t *testing.T) {
	l := testLedger()
	contra := Contradiction{
		Kind:    KindSelf,
		Earlier: claim("Glaze", "time", PolarityAffirm, 1),
		Later:   claim("Glaze", "time", PolarityDeny, 4),
	}
	assert.Equal(t, 2.0, l.Apply("Glaze", nil, []Contradiction{contra}, 0))
}

func TestLedgerHotSubjectDenial(t *testing.T) {
	l := testLedger()
	// Only the deny on the hot subject scores; other subjects, affirms, and
	// unknowns contribute nothing
	claims := []Claim{
		claim("Crumbs", "possession", PolarityDeny, 1),
		claim("Crumbs", "location", PolarityDeny, 1),
		claim("Crumbs", "possession", PolarityAffirm, 1),
		claim("Crumbs", "possession", PolarityUnknown, 1),
	}
	assert.Equal(t, 1.0, l.Apply("Crumbs", claims, nil, 0))
}

func TestLedgerAccumulatesFromPrior(t *testing.T) {
	l := testLedger()
	claims := []Claim{claim("Cherry", "possession", PolarityDeny, 2)}
	got := l.Apply("Cherry", claims, nil, 5)
	assert.Equal(t, 6.0, got)
	assert.GreaterOrEqual(t, got, 5.0)
}

func TestLedgerTiers(t *testing.T) {
	l := testLedger()
	assert.Equal(t, TierLow, l.TierFor(0))
	assert.Equal(t, TierLow, l.TierFor(2.9))
	assert.Equal(t, TierMedium, l.TierFor(3))
	assert.Equal(t, TierMedium, l.TierFor(6))
	assert.Equal(t, TierHigh, l.TierFor(6.1))
}

func TestLedgerClampsNegativeWeights(t *testing.T) {
	l := NewLedger(Weights{CrossContradiction: -3, SelfContradiction: -2, HotSubjectDenial: -1}, DefaultThresholds(), "possession")

	contras := []Contradiction{
		{
			Kind:    KindCross,
			Earlier: claim("Crumbs", "location", PolarityAffirm, 1),
			Later:   claim("Cherry", "location", PolarityDeny, 2),
		},
		{
			Kind:    KindSelf,
			Earlier: claim("Cherry", "time", PolarityAffirm, 1),
			Later:   claim("Cherry", "time", PolarityDeny, 2),
		},
	}
	claims := []Claim{claim("Cherry", "possession", PolarityDeny, 2)}

	// Clamped weights contribute nothing; the score never drops below prior
	got := l.Apply("Cherry", claims, contras, 5)
	assert.Equal(t, 5.0, got)
	assert.GreaterOrEqual(t, got, 5.0)
}
