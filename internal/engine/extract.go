package engine

import (
	"strings"
	"time"
	"unicode"
)

// SubjectRule binds one normalized subject key to the keyword phrases that
// mark a sentence as being about it. Rules are ordered: the first rule whose
// keyword appears in a sentence wins, so priority is data, not code.
type SubjectRule struct {
	Subject  string   `yaml:"subject" json:"subject"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Lexical cues for polarity classification. Negation near the matched keyword
// means the speaker denies the subject; hedging anywhere in the sentence means
// the statement takes no usable side.
var negationTokens = map[string]bool{
	"not": true, "no": true, "never": true, "nobody": true, "nothing": true,
	"nowhere": true, "without": true, "deny": true, "denied": true,
	"didn't": true, "didnt": true, "don't": true, "dont": true,
	"doesn't": true, "doesnt": true, "wasn't": true, "wasnt": true,
	"weren't": true, "werent": true, "haven't": true, "havent": true,
	"hasn't": true, "hasnt": true, "wouldn't": true, "wouldnt": true,
	"couldn't": true, "couldnt": true, "can't": true, "cant": true,
	"ain't": true, "aint": true,
}

var hedgeTokens = map[string]bool{
	"maybe": true, "perhaps": true, "possibly": true, "might": true,
	"unsure": true, "forget": true, "forgot": true, "guess": true,
	"probably": true, "unclear": true,
}

// Window of tokens around the matched keyword inspected for negation
const (
	negationLookBehind = 4
	negationLookAhead  = 2
)

// Extractor turns one persona utterance into zero or more structured claims.
// It is a pure function over the reply text and the fixed subject table:
// the same (speaker, turn, reply) always yields the same claims, even though
// the reply itself comes from a nondeterministic model.
type Extractor struct {
	rules []compiledRule
	now   func() time.Time
}

type compiledRule struct {
	subject  string
	keywords [][]string // each keyword phrase pre-tokenized
}

// NewExtractor compiles the ordered subject table. A nil clock uses time.Now;
// tests inject a fixed clock.
func NewExtractor(rules []SubjectRule, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{subject: r.Subject}
		for _, kw := range r.Keywords {
			if toks := tokenize(kw); len(toks) > 0 {
				cr.keywords = append(cr.keywords, toks)
			}
		}
		if len(cr.keywords) > 0 {
			compiled = append(compiled, cr)
		}
	}
	return &Extractor{rules: compiled, now: now}
}

// Extract splits the reply into sentences and matches each against the
// subject table. Sentences matching no subject produce no claim; not every
// sentence is evidentiary.
func (e *Extractor) Extract(speaker string, turn int, reply string) []Claim {
	var claims []Claim
	for _, sentence := range splitSentences(reply) {
		tokens := tokenize(sentence)
		if len(tokens) == 0 {
			continue
		}
		subject, at, width, ok := e.matchSubject(tokens)
		if !ok {
			continue
		}
		claims = append(claims, Claim{
			Speaker:   speaker,
			Subject:   subject,
			Polarity:  classifyPolarity(tokens, at, width, sentence),
			RawText:   sentence,
			Turn:      turn,
			Timestamp: e.now(),
		})
	}
	return claims
}

// matchSubject returns the first rule (in priority order) whose keyword
// appears in the token stream, plus where the match sits.
func (e *Extractor) matchSubject(tokens []string) (subject string, at, width int, ok bool) {
	for _, rule := range e.rules {
		for _, phrase := range rule.keywords {
			if idx := findPhrase(tokens, phrase); idx >= 0 {
				return rule.subject, idx, len(phrase), true
			}
		}
	}
	return "", 0, 0, false
}

// classifyPolarity applies the lexical rules: negation near the keyword wins,
// hedging or an outright question yields unknown, plain statements affirm.
func classifyPolarity(tokens []string, at, width int, sentence string) Polarity {
	lo := at - negationLookBehind
	if lo < 0 {
		lo = 0
	}
	hi := at + width + negationLookAhead
	if hi > len(tokens) {
		hi = len(tokens)
	}
	for _, tok := range tokens[lo:hi] {
		if negationTokens[tok] {
			return PolarityDeny
		}
	}

	if strings.HasSuffix(strings.TrimSpace(sentence), "?") {
		return PolarityUnknown
	}
	for _, tok := range tokens {
		if hedgeTokens[tok] {
			return PolarityUnknown
		}
	}
	return PolarityAffirm
}

// findPhrase locates a tokenized keyword phrase as a consecutive run
func findPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return -1
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, p := range phrase {
			if tokens[i+j] != p {
				continue outer
			}
		}
		return i
	}
	return -1
}

// splitSentences performs shallow sentence segmentation on terminal
// punctuation and line breaks. The terminator stays attached so polarity
// classification can see trailing question marks.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			current.WriteRune(r)
			if s := strings.TrimSpace(current.String()); s != "" && hasLetter(s) {
				sentences = append(sentences, s)
			}
			current.Reset()
		case '\n':
			if s := strings.TrimSpace(current.String()); s != "" && hasLetter(s) {
				sentences = append(sentences, s)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" && hasLetter(s) {
		sentences = append(sentences, s)
	}
	return sentences
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// tokenize lowercases and splits on anything that is not a letter, digit, or
// apostrophe, keeping contractions like "didn't" whole
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
