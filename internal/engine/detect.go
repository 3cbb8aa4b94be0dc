package engine

// pairKey identifies a (subject, persona pair) combination for cross
// contradiction dedup: repeated disagreement between the same two personas on
// the same subject is flagged once.
type pairKey struct {
	subject string
	a, b    string
}

func newPairKey(subject, speakerA, speakerB string) pairKey {
	if speakerA > speakerB {
		speakerA, speakerB = speakerB, speakerA
	}
	return pairKey{subject: subject, a: speakerA, b: speakerB}
}

// Detect compares a batch of freshly extracted claims against the committed
// claim history and reports every conflict found. The batch is never compared
// against itself: claims from a single reply cannot contradict each other,
// only the persisted history up to the prior turn.
//
// For each new claim with a usable polarity, a self contradiction (the same
// speaker reversing an earlier statement) is emitted before any cross
// contradictions (other speakers who took the opposite side earlier). Cross
// contradictions are deduplicated per (subject, pair of personas) across the
// whole session via the prior contradiction list.
func Detect(newClaims, existing []Claim, prior []Contradiction, turn int) []Contradiction {
	flagged := make(map[pairKey]bool)
	for _, c := range prior {
		if c.Kind == KindCross {
			flagged[newPairKey(c.Earlier.Subject, c.Earlier.Speaker, c.Later.Speaker)] = true
		}
	}

	var found []Contradiction
	for _, nc := range newClaims {
		if nc.Polarity == PolarityUnknown {
			continue
		}

		// Self: earliest opposite claim by the same speaker
		for _, ec := range existing {
			if ec.Polarity == PolarityUnknown {
				continue
			}
			if ec.Speaker == nc.Speaker && ec.Subject == nc.Subject && ec.Polarity != nc.Polarity {
				found = append(found, Contradiction{
					Kind:           KindSelf,
					Earlier:        ec,
					Later:          nc,
					DetectedAtTurn: turn,
				})
				break
			}
		}

		// Cross: earliest opposite claim per other speaker, once per pair
		seenSpeaker := make(map[string]bool)
		for _, ec := range existing {
			if ec.Polarity == PolarityUnknown {
				continue
			}
			if ec.Speaker == nc.Speaker || ec.Subject != nc.Subject || ec.Polarity == nc.Polarity {
				continue
			}
			if seenSpeaker[ec.Speaker] {
				continue
			}
			seenSpeaker[ec.Speaker] = true

			key := newPairKey(nc.Subject, nc.Speaker, ec.Speaker)
			if flagged[key] {
				continue
			}
			flagged[key] = true
			found = append(found, Contradiction{
				Kind:           KindCross,
				Earlier:        ec,
				Later:          nc,
				DetectedAtTurn: turn,
			})
		}
	}
	return found
}
