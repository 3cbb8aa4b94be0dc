// Package transcript keeps a durable log of the raw interrogation. It is a
// best-effort collaborator: the session engine emits records here after a
// committed turn and never depends on the contents for game logic.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/muffingang/go-interrogate-cli/internal/engine"
	"github.com/pkg/errors"
)

// SpeakerType distinguishes investigator turns from persona replies
type SpeakerType string

const (
	SpeakerPlayer SpeakerType = "PLAYER"
	SpeakerNPC    SpeakerType = "NPC"
)

// Turn is one question-and-reply exchange as written to disk
type Turn struct {
	SessionID      string         `json:"session_id"`
	TurnID         int            `json:"turn_id"`
	PersonaID      string         `json:"persona_id"`
	SpeakerType    SpeakerType    `json:"speaker_type"`
	Timestamp      string         `json:"timestamp"`
	PlayerQuestion string         `json:"player_question,omitempty"`
	RawOutput      string         `json:"raw_output"`
	Claims         []engine.Claim `json:"claims,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type slotIndex struct {
	CurrentIndex   int    `json:"current_index"`
	TotalWritten   int    `json:"total_written"`
	MaxTranscripts int    `json:"max_transcripts"`
	UpdatedAt      string `json:"updated_at"`
}

// Manager writes per-persona transcript files into a bounded circular buffer
// of max N slots, with crash-safe tmp-then-rename writes. Appends arrive from
// background goroutines, so the index read-modify-write serializes through one
// mutex.
type Manager struct {
	mu      sync.Mutex
	baseDir string
	max     int
}

// NewManager creates a transcript manager rooted at baseDir
func NewManager(baseDir string, maxPerPersona int) *Manager {
	if maxPerPersona <= 0 {
		maxPerPersona = 100
	}
	return &Manager{baseDir: baseDir, max: maxPerPersona}
}

func (m *Manager) sessionDir(sessionID string) string {
	return filepath.Join(m.baseDir, "session_"+sessionID)
}

func (m *Manager) personaDir(sessionID, personaID string) string {
	return filepath.Join(m.sessionDir(sessionID), personaID)
}

func (m *Manager) indexPath(sessionID, personaID string) string {
	return filepath.Join(m.personaDir(sessionID, personaID), "index.json")
}

func (m *Manager) turnPath(sessionID, personaID string, slot int) string {
	return filepath.Join(m.personaDir(sessionID, personaID), fmt.Sprintf("turn_%03d.json", slot))
}

// InitializeSession creates the per-persona directories and empty indexes
func (m *Manager) InitializeSession(sessionID string, personaIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pid := range personaIDs {
		dir := m.personaDir(sessionID, pid)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create transcript dir for %s", pid)
		}
		if _, err := os.Stat(m.indexPath(sessionID, pid)); os.IsNotExist(err) {
			if err := m.writeIndex(sessionID, pid, -1, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) readIndex(sessionID, personaID string) slotIndex {
	idx := slotIndex{CurrentIndex: -1}
	data, err := os.ReadFile(m.indexPath(sessionID, personaID))
	if err != nil {
		return idx
	}
	// A corrupt index resets the buffer rather than failing the game
	if err := json.Unmarshal(data, &idx); err != nil {
		return slotIndex{CurrentIndex: -1}
	}
	return idx
}

func (m *Manager) writeIndex(sessionID, personaID string, current, total int) error {
	idx := slotIndex{
		CurrentIndex:   current,
		TotalWritten:   total,
		MaxTranscripts: m.max,
		UpdatedAt:      time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal transcript index")
	}
	return atomicWrite(m.indexPath(sessionID, personaID), data)
}

// Append logs one committed turn into the persona's next buffer slot
func (m *Manager) Append(turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.readIndex(turn.SessionID, turn.PersonaID)
	nextSlot := (idx.CurrentIndex + 1) % m.max

	data, err := json.MarshalIndent(turn, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal transcript turn")
	}
	path := m.turnPath(turn.SessionID, turn.PersonaID, nextSlot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create transcript dir")
	}
	if err := atomicWrite(path, data); err != nil {
		return err
	}
	return m.writeIndex(turn.SessionID, turn.PersonaID, nextSlot, idx.TotalWritten+1)
}

// PersonaTurns reads back every retained turn for one persona, oldest first
func (m *Manager) PersonaTurns(sessionID, personaID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.personaTurns(sessionID, personaID)
}

func (m *Manager) personaTurns(sessionID, personaID string) []Turn {
	idx := m.readIndex(sessionID, personaID)
	if idx.TotalWritten == 0 {
		return nil
	}

	n := idx.TotalWritten
	if n > m.max {
		n = m.max
	}
	var turns []Turn
	for i := 0; i < n; i++ {
		slot := (idx.CurrentIndex - i + m.max) % m.max
		data, err := os.ReadFile(m.turnPath(sessionID, personaID, slot))
		if err != nil {
			continue
		}
		var t Turn
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i].TurnID < turns[j].TurnID })
	return turns
}

// LastNTurns returns the most recent n turns for a persona, oldest first
func (m *Manager) LastNTurns(sessionID, personaID string, n int) []Turn {
	if n <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.personaTurns(sessionID, personaID)
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

// FullTranscript aggregates all persona turns sorted by turn ID
func (m *Manager) FullTranscript(sessionID string, personaIDs []string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []Turn
	seen := make(map[int]bool)
	for _, pid := range personaIDs {
		for _, t := range m.personaTurns(sessionID, pid) {
			if !seen[t.TurnID] {
				seen[t.TurnID] = true
				all = append(all, t)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].TurnID != all[j].TurnID {
			return all[i].TurnID < all[j].TurnID
		}
		return all[i].PersonaID < all[j].PersonaID
	})
	return all
}

// RecoverFromCrash removes stray tmp files left by an interrupted write
func (m *Manager) RecoverFromCrash(sessionID string, personaIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pid := range personaIDs {
		dir := m.personaDir(sessionID, pid)
		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		if err != nil {
			continue
		}
		for _, f := range matches {
			_ = os.Remove(f)
		}
	}
}

// atomicWrite writes data to path via a tmp file, fsync, and rename so a
// crash never leaves a half-written transcript
func atomicWrite(path string, data []byte) error {
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
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to rename %s", tmp)
	}
	return nil
}
