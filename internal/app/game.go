package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/muffingang/go-interrogate-cli/internal/config"
	"github.com/muffingang/go-interrogate-cli/internal/engine"
	"github.com/muffingang/go-interrogate-cli/internal/memory"
	"github.com/muffingang/go-interrogate-cli/internal/scenario"
	"github.com/muffingang/go-interrogate-cli/internal/transcript"
	"github.com/muffingang/go-interrogate-cli/pkg/generator"
	pkgLogger "github.com/muffingang/go-interrogate-cli/pkg/logger"
)

// How much prior conversation a persona sees when answering
const (
	recentTurnsInPrompt        = 5
	contradictionNotesInPrompt = 5
	maxQuestionPreviewLen      = 200
	maxAnswerPreviewLen        = 300
)

// Game wires the session engine to its collaborators: per-persona generators,
// the transcript log, and rolling memory. The engine stays pure; everything
// nondeterministic or I/O-shaped lives here.
type Game struct {
	settings    *config.Settings
	canon       *scenario.Canon
	session     *engine.Session
	generators  map[string]generator.Generator
	transcripts *transcript.Manager
	memories    *memory.Manager
	logger      *pkgLogger.Logger
}

// NewGame builds a session from settings and scenario plus one generator per
// persona
func NewGame(settings *config.Settings, canon *scenario.Canon, generators map[string]generator.Generator) (*Game, error) {
	personas := canon.EnginePersonas()
	for _, p := range personas {
		if _, ok := generators[p.ID]; !ok {
			return nil, fmt.Errorf("no generator configured for persona %s", p.ID)
		}
	}

	extractor := engine.NewExtractor(canon.Subjects, nil)
	ledger := engine.NewLedger(
		engine.Weights{
			CrossContradiction: settings.Scoring.CrossContradiction,
			SelfContradiction:  settings.Scoring.SelfContradiction,
			HotSubjectDenial:   settings.Scoring.HotSubjectDenial,
		},
		engine.Thresholds{
			Medium: settings.Scoring.MediumThreshold,
			High:   settings.Scoring.HighThreshold,
		},
		canon.HotSubject,
	)

	session, err := engine.NewSession(engine.Config{
		Personas:             personas,
		QuestionBudget:       settings.Game.QuestionsPerPersona,
		AllowEarlyAccusation: settings.Game.AllowEarlyAccusation,
		Seed:                 settings.Game.Seed,
		Extractor:            extractor,
		Ledger:               ledger,
	})
	if err != nil {
		return nil, err
	}

	return &Game{
		settings:    settings,
		canon:       canon,
		session:     session,
		generators:  generators,
		transcripts: transcript.NewManager(settings.Transcript.Dir, settings.Transcript.MaxPerPersona),
		memories:    memory.NewManager(settings.Memory.Dir),
		logger:      pkgLogger.NewComponentLogger("game"),
	}, nil
}

// Session exposes the engine for read-only inspection by the REPL
func (g *Game) Session() *engine.Session {
	return g.session
}

// Canon exposes the loaded scenario
func (g *Game) Canon() *scenario.Canon {
	return g.canon
}

// Start begins the interrogation and returns the intro text
func (g *Game) Start() (string, error) {
	if err := g.session.Start(); err != nil {
		return "", err
	}

	ids := personaIDs(g.session.Personas())
	g.transcripts.RecoverFromCrash(g.session.ID(), ids)
	g.memories.RecoverFromCrash(g.session.ID())
	if err := g.transcripts.InitializeSession(g.session.ID(), ids); err != nil {
		g.logger.Warn("Transcript init failed; continuing without persistence", "error", err)
	}
	if err := g.memories.InitializeSession(g.session.ID(), ids); err != nil {
		g.logger.Warn("Memory init failed; continuing without summaries", "error", err)
	}

	g.logger.WithSession(g.session.ID()).InfoWithIcon("🕵️", "Interrogation started",
		"budget", g.settings.Game.QuestionsPerPersona)
	return g.canon.Intro, nil
}

// Ask runs one full turn: the generator produces the persona's reply, the
// engine commits the claims/contradictions/score atomically, and the
// transcript and memory collaborators are notified best-effort afterward.
// A generator failure surfaces as ErrGenerationUnavailable with the session
// untouched.
func (g *Game) Ask(ctx context.Context, personaID, question string) (*engine.TurnObservation, error) {
	if remaining, err := g.session.QuestionsRemaining(personaID); err != nil {
		return nil, err
	} else if remaining <= 0 {
		return nil, fmt.Errorf("%w: %s", engine.ErrBudgetExhausted, personaID)
	}

	system, err := g.canon.SystemPromptFor(personaID, personaID == g.session.Culprit())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidPersona, err)
	}

	reply, err := g.generators[personaID].Generate(ctx, generator.Request{
		System:   system,
		History:  g.historyFor(personaID),
		Question: g.buildQuestionPrompt(personaID, question),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrGenerationUnavailable, err)
	}

	obs, err := g.session.Ask(personaID, question, reply)
	if err != nil {
		return nil, err
	}

	g.notifyCollaborators(obs)
	return obs, nil
}

// Accuse resolves the game and renders the reveal text
func (g *Game) Accuse(personaID string) (*engine.Verdict, string, error) {
	verdict, err := g.session.Accuse(personaID)
	if err != nil {
		return nil, "", err
	}

	var reveal string
	if verdict.Correct {
		reveal = fmt.Sprintf("You were right. %s stole the Grand Muffin.", verdict.Accused)
	} else {
		reveal = fmt.Sprintf("Wrong. The thief was %s, not %s.", verdict.Actual, verdict.Accused)
	}
	g.logger.WithSession(g.session.ID()).InfoWithIcon("⚖️", "Accusation resolved",
		"accused", verdict.Accused, "correct", verdict.Correct)
	return verdict, reveal, nil
}

// historyFor converts recent transcript turns into generator exchanges
func (g *Game) historyFor(personaID string) []generator.Exchange {
	turns := g.transcripts.LastNTurns(g.session.ID(), personaID, recentTurnsInPrompt)
	history := make([]generator.Exchange, 0, len(turns))
	for _, t := range turns {
		history = append(history, generator.Exchange{
			Question: truncate(t.PlayerQuestion, maxQuestionPreviewLen),
			Answer:   truncate(t.RawOutput, maxAnswerPreviewLen),
		})
	}
	return history
}

// buildQuestionPrompt frames the investigator's question with the persona's
// memory recap and any contradictions they should stay consistent with
func (g *Game) buildQuestionPrompt(personaID, question string) string {
	summary := g.memories.Load(g.session.ID(), personaID)

	var b strings.Builder
	b.WriteString("--- MEMORY RECAP ---\n")
	if len(summary.KeyClaims) > 0 {
		b.WriteString("Your key claims so far:\n")
		for _, c := range summary.KeyClaims {
			b.WriteString("  - " + c + "\n")
		}
	} else {
		b.WriteString("Your key claims so far: none yet.\n")
	}
	alibi := summary.CoreAlibi
	if alibi == "" {
		alibi = "Not yet stated."
	}
	b.WriteString("Your alibi / story: " + alibi + "\n")

	notes := g.contradictionNotes(personaID)
	if len(notes) > 0 {
		b.WriteString("Contradictions to be aware of (stay consistent or address carefully):\n")
		for _, n := range notes {
			b.WriteString("  - " + n + "\n")
		}
	}

	b.WriteString("\n--- NEW QUESTION ---\n")
	b.WriteString("The investigator asks: " + question + "\n")
	b.WriteString("\nReply in character only, in 1-3 short paragraphs. Do not confess or break character.")
	return b.String()
}

// contradictionNotes renders the persona's contradictions as short prompts
func (g *Game) contradictionNotes(personaID string) []string {
	contras := g.session.ContradictionsFor(personaID)
	if len(contras) > contradictionNotesInPrompt {
		contras = contras[len(contras)-contradictionNotesInPrompt:]
	}
	notes := make([]string, 0, len(contras))
	for _, c := range contras {
		notes = append(notes, DescribeContradiction(c))
	}
	return notes
}

// DescribeContradiction renders one contradiction for prompts and the console
func DescribeContradiction(c engine.Contradiction) string {
	if c.Kind == engine.KindSelf {
		return fmt.Sprintf("You previously said %q but now said %q (about %s).",
			c.Earlier.RawText, c.Later.RawText, c.Later.Subject)
	}
	return fmt.Sprintf("%s said %q but %s said %q (about %s).",
		c.Earlier.Speaker, c.Earlier.RawText, c.Later.Speaker, c.Later.RawText, c.Later.Subject)
}

// notifyCollaborators emits the committed turn to transcript and memory.
// Both are best-effort: failures are logged, never propagated back into the
// session.
func (g *Game) notifyCollaborators(obs *engine.TurnObservation) {
	sessionID := g.session.ID()
	turn := transcript.Turn{
		SessionID:      sessionID,
		TurnID:         obs.Turn,
		PersonaID:      obs.Persona,
		SpeakerType:    transcript.SpeakerNPC,
		Timestamp:      time.Now().Format(time.RFC3339),
		PlayerQuestion: obs.Question,
		RawOutput:      obs.Reply,
		Claims:         obs.Claims,
		Metadata:       map[string]any{"score": obs.Score},
	}

	go func() {
		if err := g.transcripts.Append(turn); err != nil {
			g.logger.Warn("Transcript append failed", "turn", obs.Turn, "error", err)
		}
	}()
	go func() {
		if err := g.memories.RecordTurn(sessionID, obs.Persona, obs.Turn, obs.Question, obs.Reply, obs.Claims); err != nil {
			g.logger.Warn("Memory update failed", "turn", obs.Turn, "error", err)
		}
		for _, c := range obs.Contradictions {
			if err := g.memories.NoteContradiction(sessionID, c.Later.Speaker, c); err != nil {
				g.logger.Warn("Memory contradiction note failed", "turn", obs.Turn, "error", err)
			}
		}
	}()
}

func personaIDs(personas []engine.Persona) []string {
	ids := make([]string, 0, len(personas))
	for _, p := range personas {
		ids = append(ids, p.ID)
	}
	return ids
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so prompts
// never carry a split multi-byte character
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
