package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the interrogation phase
type SessionState string

const (
	StateNotStarted         SessionState = "not_started"
	StateInProgress         SessionState = "in_progress"
	StateAwaitingAccusation SessionState = "awaiting_accusation"
	StateResolved           SessionState = "resolved"
)

// DefaultQuestionBudget is how many questions each persona answers
const DefaultQuestionBudget = 2

// Config carries everything a session needs at construction
type Config struct {
	// Personas are the fixed interrogation subjects; exactly three
	Personas []Persona
	// QuestionBudget per persona; defaults to DefaultQuestionBudget
	QuestionBudget int
	// AllowEarlyAccusation permits Accuse while questions remain
	AllowEarlyAccusation bool
	// Seed drives the culprit pick when Culprit is empty; 0 seeds from the clock
	Seed int64
	// Culprit pins the ground truth for reproducible games; empty picks by seed
	Culprit string
	// Extractor and Ledger are required collaborators
	Extractor *Extractor
	Ledger    *Ledger
	// Clock stamps observations; nil uses time.Now
	Clock func() time.Time
}

// TurnObservation is everything the caller learns from one committed turn
type TurnObservation struct {
	Persona            string
	Turn               int
	Question           string
	Reply              string
	Claims             []Claim
	Contradictions     []Contradiction
	Score              Score
	QuestionsRemaining int
}

// Verdict resolves an accusation against the session's ground truth
type Verdict struct {
	Accused     string
	Actual      string
	Correct     bool
	FinalScores map[string]Score
}

// Session owns the questioning budget, turn sequencing, and the accusation
// transition. It is the single writer to the claim store, contradiction store,
// and score map; callers interact with nothing else directly. All operations
// serialize through one mutex, so concurrent hosts cannot interleave commits.
type Session struct {
	mu sync.Mutex

	id         string
	state      SessionState
	personas   []Persona
	budget     int
	allowEarly bool
	seed       int64
	pinned     string

	extractor *Extractor
	ledger    *Ledger
	clock     func() time.Time

	turn    int
	asked   map[string]int
	claims  []Claim
	contras []Contradiction
	points  map[string]float64
	culprit string
	verdict *Verdict
}

// NewSession validates the config and returns a NotStarted session
func NewSession(cfg Config) (*Session, error) {
	if len(cfg.Personas) != 3 {
		return nil, fmt.Errorf("expected exactly 3 personas, got %d", len(cfg.Personas))
	}
	if cfg.Extractor == nil || cfg.Ledger == nil {
		return nil, fmt.Errorf("extractor and ledger are required")
	}
	if cfg.QuestionBudget <= 0 {
		cfg.QuestionBudget = DefaultQuestionBudget
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Culprit != "" {
		if !hasPersona(cfg.Personas, cfg.Culprit) {
			return nil, fmt.Errorf("%w: culprit %q", ErrInvalidPersona, cfg.Culprit)
		}
	}

	return &Session{
		id:         uuid.NewString(),
		state:      StateNotStarted,
		personas:   append([]Persona(nil), cfg.Personas...),
		budget:     cfg.QuestionBudget,
		allowEarly: cfg.AllowEarlyAccusation,
		seed:       cfg.Seed,
		pinned:     cfg.Culprit,
		extractor:  cfg.Extractor,
		ledger:     cfg.Ledger,
		clock:      cfg.Clock,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current phase
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Personas returns the fixed interrogation subjects
func (s *Session) Personas() []Persona {
	return append([]Persona(nil), s.personas...)
}

// Start transitions NotStarted to InProgress, fixing the ground-truth culprit
// and zeroing every store
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	s.culprit = s.pinned
	if s.culprit == "" {
		seed := s.seed
		if seed == 0 {
			seed = s.clock().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))
		s.culprit = s.personas[rng.Intn(len(s.personas))].ID
	}

	s.asked = make(map[string]int, len(s.personas))
	s.points = make(map[string]float64, len(s.personas))
	for _, p := range s.personas {
		s.asked[p.ID] = 0
		s.points[p.ID] = 0
	}
	s.claims = nil
	s.contras = nil
	s.turn = 0
	s.state = StateInProgress
	return nil
}

// Culprit exposes the ground truth to the host so it can brief the guilty
// persona. Empty until Start.
func (s *Session) Culprit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.culprit
}

// Ask commits one interrogation turn: extraction, contradiction detection,
// and scoring run in sequence and land atomically, or not at all. A failed
// call leaves every store byte-for-byte unchanged.
func (s *Session) Ask(personaID, question, reply string) (*TurnObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateNotStarted:
		return nil, ErrNotReady
	case StateResolved:
		return nil, ErrAlreadyResolved
	case StateAwaitingAccusation:
		return nil, ErrBudgetExhausted
	}
	if !hasPersona(s.personas, personaID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPersona, personaID)
	}
	if s.asked[personaID] >= s.budget {
		return nil, fmt.Errorf("%w: %s answered %d of %d", ErrBudgetExhausted, personaID, s.asked[personaID], s.budget)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, ErrGenerationUnavailable
	}

	// Everything below is computed against the committed history; nothing is
	// written until all three stages have run.
	turn := s.turn + 1
	newClaims := s.extractor.Extract(personaID, turn, reply)
	newContras := Detect(newClaims, s.claims, s.contras, turn)
	newPoints := s.ledger.Apply(personaID, newClaims, newContras, s.points[personaID])

	s.claims = append(s.claims, newClaims...)
	s.contras = append(s.contras, newContras...)
	s.points[personaID] = newPoints
	s.asked[personaID]++
	s.turn = turn
	if s.allBudgetsExhausted() {
		s.state = StateAwaitingAccusation
	}

	return &TurnObservation{
		Persona:            personaID,
		Turn:               turn,
		Question:           question,
		Reply:              reply,
		Claims:             append([]Claim(nil), newClaims...),
		Contradictions:     append([]Contradiction(nil), newContras...),
		Score:              Score{Points: newPoints, Tier: s.ledger.TierFor(newPoints)},
		QuestionsRemaining: s.budget - s.asked[personaID],
	}, nil
}

// Accuse resolves the game against the fixed ground truth. It requires every
// budget to be spent unless the early accusation policy is on. The session is
// terminal afterward; a second call fails.
func (s *Session) Accuse(personaID string) (*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateNotStarted:
		return nil, ErrNotReady
	case StateResolved:
		return nil, ErrAlreadyResolved
	case StateInProgress:
		if !s.allowEarly {
			return nil, fmt.Errorf("%w: questions remain and early accusation is disabled", ErrNotReady)
		}
	}
	if !hasPersona(s.personas, personaID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPersona, personaID)
	}

	verdict := &Verdict{
		Accused:     personaID,
		Actual:      s.culprit,
		Correct:     personaID == s.culprit,
		FinalScores: s.scoresLocked(),
	}
	s.verdict = verdict
	s.state = StateResolved
	return verdict, nil
}

// Scores returns a copy of every persona's cumulative suspicion
func (s *Session) Scores() map[string]Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoresLocked()
}

func (s *Session) scoresLocked() map[string]Score {
	scores := make(map[string]Score, len(s.personas))
	for _, p := range s.personas {
		pts := s.points[p.ID]
		scores[p.ID] = Score{Points: pts, Tier: s.ledger.TierFor(pts)}
	}
	return scores
}

// Claims returns the ordered claim store
func (s *Session) Claims() []Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Claim(nil), s.claims...)
}

// Contradictions returns the ordered contradiction store
func (s *Session) Contradictions() []Contradiction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Contradiction(nil), s.contras...)
}

// ContradictionsFor filters the store to contradictions where the persona is
// the later claimant - the ones that count against them
func (s *Session) ContradictionsFor(personaID string) []Contradiction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Contradiction
	for _, c := range s.contras {
		if c.Later.Speaker == personaID {
			out = append(out, c)
		}
	}
	return out
}

// QuestionsRemaining reports the unspent budget for one persona
func (s *Session) QuestionsRemaining(personaID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !hasPersona(s.personas, personaID) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPersona, personaID)
	}
	if s.asked == nil {
		return s.budget, nil
	}
	return s.budget - s.asked[personaID], nil
}

func (s *Session) allBudgetsExhausted() bool {
	for _, p := range s.personas {
		if s.asked[p.ID] < s.budget {
			return false
		}
	}
	return true
}

func hasPersona(personas []Persona, id string) bool {
	for _, p := range personas {
		if p.ID == id {
			return true
		}
	}
	return false
}
