// Package memory maintains rolling per-persona summaries fed back into future
// prompts. Like transcripts, it is fire-and-forget: a failed summary write is
// logged and never rolls back a committed turn.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/muffingang/go-interrogate-cli/internal/engine"
	"github.com/pkg/errors"
)

// Summary is the condensed view of one persona's story so far
type Summary struct {
	PersonaID         string   `json:"persona_id"`
	CoreAlibi         string   `json:"core_alibi"`
	TimelineSummary   string   `json:"timeline_summary"`
	KeyClaims         []string `json:"key_claims"`
	KnownSelfContras  []string `json:"known_self_contradictions"`
	KnownCrossContras []string `json:"known_cross_contradictions"`
	LastUpdatedTurnID int      `json:"last_updated_turn_id"`
}

// Turns a persona must have answered before their summary is rewritten
const summarizeAfterTurns = 3

// Most recent key claims kept in a summary
const maxKeyClaims = 20

func emptySummary(personaID string) *Summary {
	return &Summary{PersonaID: personaID}
}

// Manager owns the per-persona summary files for one process. Turns are
// reported from background goroutines, so all methods serialize through one
// mutex.
type Manager struct {
	mu        sync.Mutex
	baseDir   string
	turnsSeen map[string]int
	keyClaims map[string][]string
}

// NewManager creates a memory manager rooted at baseDir
func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:   baseDir,
		turnsSeen: make(map[string]int),
		keyClaims: make(map[string][]string),
	}
}

func (m *Manager) sessionDir(sessionID string) string {
	return filepath.Join(m.baseDir, "session_"+sessionID)
}

func (m *Manager) summaryPath(sessionID, personaID string) string {
	return filepath.Join(m.sessionDir(sessionID), personaID+"_memory_summary.json")
}

// InitializeSession bootstraps an empty summary per persona
func (m *Manager) InitializeSession(sessionID string, personaIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.sessionDir(sessionID), 0755); err != nil {
		return errors.Wrap(err, "failed to create session data dir")
	}
	for _, pid := range personaIDs {
		path := m.summaryPath(sessionID, pid)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := m.save(sessionID, emptySummary(pid)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads a persona's summary, falling back to an empty one on any error
func (m *Manager) Load(sessionID, personaID string) *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(sessionID, personaID)
}

func (m *Manager) load(sessionID, personaID string) *Summary {
	data, err := os.ReadFile(m.summaryPath(sessionID, personaID))
	if err != nil {
		return emptySummary(personaID)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return emptySummary(personaID)
	}
	return &s
}

// RecordTurn feeds one committed turn into the persona's rolling memory.
// Summaries are only rewritten once the persona has answered enough turns,
// and key claims are capped at the most recent entries.
func (m *Manager) RecordTurn(sessionID, personaID string, turnID int, question, reply string, claims []engine.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turnsSeen[personaID]++
	for _, c := range claims {
		m.keyClaims[personaID] = append(m.keyClaims[personaID],
			fmt.Sprintf("%s: %s(%s) - %q", c.Speaker, c.Polarity, c.Subject, c.RawText))
	}

	if m.turnsSeen[personaID] <= summarizeAfterTurns {
		return nil
	}

	summary := m.load(sessionID, personaID)
	if turnID <= summary.LastUpdatedTurnID {
		return nil
	}

	key := m.keyClaims[personaID]
	if len(key) > maxKeyClaims {
		key = key[len(key)-maxKeyClaims:]
	}
	summary.KeyClaims = append([]string(nil), key...)
	if summary.CoreAlibi == "" {
		summary.CoreAlibi = "Not yet stated."
	}
	if summary.TimelineSummary == "" {
		summary.TimelineSummary = "Timeline not yet established."
	}
	summary.LastUpdatedTurnID = turnID
	return m.save(sessionID, summary)
}

// NoteContradiction records a detected contradiction into the summary so the
// persona can be confronted with it in later prompts
func (m *Manager) NoteContradiction(sessionID, personaID string, c engine.Contradiction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := m.load(sessionID, personaID)
	note := fmt.Sprintf("turn %d: %s vs %s on %s", c.DetectedAtTurn, c.Earlier.Polarity, c.Later.Polarity, c.Later.Subject)
	if c.Kind == engine.KindSelf {
		summary.KnownSelfContras = append(summary.KnownSelfContras, note)
	} else {
		summary.KnownCrossContras = append(summary.KnownCrossContras, note)
	}
	return m.save(sessionID, summary)
}

func (m *Manager) save(sessionID string, summary *Summary) error {
	path := m.summaryPath(sessionID, summary.PersonaID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create session data dir")
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal memory summary")
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to sync %s", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "failed to rename %s", tmp)
}

// RecoverFromCrash removes stray tmp files left by an interrupted save
func (m *Manager) RecoverFromCrash(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(m.sessionDir(sessionID), "*.tmp"))
	if err != nil {
		return
	}
	for _, f := range matches {
		_ = os.Remove(f)
	}
}
