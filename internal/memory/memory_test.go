package memory

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/muffingang/go-interrogate-cli/internal/engine"
)

func TestLoadFallsBackToEmpty(t *testing.T) {
	m := NewManager(t.TempDir())
	s := m.Load("missing-session", "Crumbs")
	if s.PersonaID != "Crumbs" {
		t.Errorf("expected PersonaID Crumbs, got %q", s.PersonaID)
	}
	if len(s.KeyClaims) != 0 || s.LastUpdatedTurnID != 0 {
		t.Errorf("expected empty summary, got %+v", s)
	}
}

func TestInitializeSessionWritesEmptySummaries(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Crumbs", "Cherry"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}
	for _, pid := range []string{"Crumbs", "Cherry"} {
		if _, err := os.Stat(m.summaryPath("s1", pid)); err != nil {
			t.Errorf("expected summary file for %s: %v", pid, err)
		}
	}
}

func TestRecordTurnSummarizesAfterThreshold(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Cherry"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}

	c := engine.Claim{Speaker: "Cherry", Subject: "location", Polarity: engine.PolarityDeny, RawText: "I was never at the bakery.", Turn: 1}

	// The first three turns accumulate but do not rewrite the summary
	for turn := 1; turn <= 3; turn++ {
		if err := m.RecordTurn("s1", "Cherry", turn, "Q", "A", []engine.Claim{c}); err != nil {
			t.Fatalf("RecordTurn %d failed: %v", turn, err)
		}
		if got := m.Load("s1", "Cherry").LastUpdatedTurnID; got != 0 {
			t.Fatalf("turn %d: summary rewritten too early, LastUpdatedTurnID=%d", turn, got)
		}
	}

	if err := m.RecordTurn("s1", "Cherry", 4, "Q", "A", []engine.Claim{c}); err != nil {
		t.Fatalf("RecordTurn 4 failed: %v", err)
	}
	s := m.Load("s1", "Cherry")
	if s.LastUpdatedTurnID != 4 {
		t.Errorf("expected LastUpdatedTurnID 4, got %d", s.LastUpdatedTurnID)
	}
	if len(s.KeyClaims) != 4 {
		t.Errorf("expected 4 key claims, got %d", len(s.KeyClaims))
	}
	if s.CoreAlibi == "" || s.TimelineSummary == "" {
		t.Errorf("expected placeholder alibi and timeline, got %+v", s)
	}
}

func TestRecordTurnCapsKeyClaims(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Glaze"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}

	for turn := 1; turn <= 10; turn++ {
		claims := []engine.Claim{
			{Speaker: "Glaze", Subject: "time", Polarity: engine.PolarityAffirm, RawText: "It was nine.", Turn: turn},
			{Speaker: "Glaze", Subject: "location", Polarity: engine.PolarityAffirm, RawText: "Back room.", Turn: turn},
			{Speaker: "Glaze", Subject: "possession", Polarity: engine.PolarityDeny, RawText: "Not mine.", Turn: turn},
		}
		if err := m.RecordTurn("s1", "Glaze", turn, "Q", "A", claims); err != nil {
			t.Fatalf("RecordTurn %d failed: %v", turn, err)
		}
	}

	s := m.Load("s1", "Glaze")
	if len(s.KeyClaims) != maxKeyClaims {
		t.Errorf("expected key claims capped at %d, got %d", maxKeyClaims, len(s.KeyClaims))
	}
}

func TestRecordTurnIgnoresStaleTurnIDs(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Cherry"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}
	for turn := 1; turn <= 5; turn++ {
		if err := m.RecordTurn("s1", "Cherry", turn, "Q", "A", nil); err != nil {
			t.Fatalf("RecordTurn %d failed: %v", turn, err)
		}
	}
	before := m.Load("s1", "Cherry").LastUpdatedTurnID

	// A replayed older turn must not move the summary backwards
	if err := m.RecordTurn("s1", "Cherry", 2, "Q", "A", nil); err != nil {
		t.Fatalf("RecordTurn replay failed: %v", err)
	}
	if got := m.Load("s1", "Cherry").LastUpdatedTurnID; got != before {
		t.Errorf("expected LastUpdatedTurnID unchanged at %d, got %d", before, got)
	}
}

func TestNoteContradictionRoutesByKind(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Cherry"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}

	self := engine.Contradiction{
		Kind:           engine.KindSelf,
		Earlier:        engine.Claim{Speaker: "Cherry", Subject: "time", Polarity: engine.PolarityAffirm, Turn: 1},
		Later:          engine.Claim{Speaker: "Cherry", Subject: "time", Polarity: engine.PolarityDeny, Turn: 3},
		DetectedAtTurn: 3,
	}
	cross := engine.Contradiction{
		Kind:           engine.KindCross,
		Earlier:        engine.Claim{Speaker: "Crumbs", Subject: "location", Polarity: engine.PolarityAffirm, Turn: 2},
		Later:          engine.Claim{Speaker: "Cherry", Subject: "location", Polarity: engine.PolarityDeny, Turn: 4},
		DetectedAtTurn: 4,
	}
	if err := m.NoteContradiction("s1", "Cherry", self); err != nil {
		t.Fatalf("NoteContradiction(self) failed: %v", err)
	}
	if err := m.NoteContradiction("s1", "Cherry", cross); err != nil {
		t.Fatalf("NoteContradiction(cross) failed: %v", err)
	}

	s := m.Load("s1", "Cherry")
	if len(s.KnownSelfContras) != 1 {
		t.Errorf("expected 1 self contradiction note, got %d", len(s.KnownSelfContras))
	}
	if len(s.KnownCrossContras) != 1 {
		t.Errorf("expected 1 cross contradiction note, got %d", len(s.KnownCrossContras))
	}
}

func TestRecoverFromCrashRemovesTmpFiles(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Crumbs"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}
	stray := filepath.Join(m.sessionDir("s1"), "Crumbs_memory_summary.json.tmp")
	if err := os.WriteFile(stray, []byte("partial"), 0644); err != nil {
		t.Fatalf("failed to plant tmp file: %v", err)
	}

	m.RecoverFromCrash("s1")

	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Errorf("expected tmp file removed, stat err = %v", err)
	}
	if _, err := os.Stat(m.summaryPath("s1", "Crumbs")); err != nil {
		t.Errorf("expected summary intact: %v", err)
	}
}

func TestConcurrentRecordTurnsAreSerialized(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.InitializeSession("s1", []string{"Cherry"}); err != nil {
		t.Fatalf("InitializeSession failed: %v", err)
	}

	// One goroutine per committed turn, the way the game notifies memory
	var wg sync.WaitGroup
	for turn := 1; turn <= 20; turn++ {
		wg.Add(1)
		go func(turn int) {
			defer wg.Done()
			c := engine.Claim{Speaker: "Cherry", Subject: "possession", Polarity: engine.PolarityDeny, RawText: "Not me.", Turn: turn}
			if err := m.RecordTurn("s1", "Cherry", turn, "Q", "A", []engine.Claim{c}); err != nil {
				t.Errorf("RecordTurn %d failed: %v", turn, err)
			}
		}(turn)
	}
	wg.Wait()

	// A final sequential turn flushes a summary over everything recorded
	if err := m.RecordTurn("s1", "Cherry", 21, "Q", "A", nil); err != nil {
		t.Fatalf("RecordTurn 21 failed: %v", err)
	}
	s := m.Load("s1", "Cherry")
	if s.LastUpdatedTurnID != 21 {
		t.Errorf("expected LastUpdatedTurnID 21, got %d", s.LastUpdatedTurnID)
	}
	if len(s.KeyClaims) != maxKeyClaims {
		t.Errorf("expected %d key claims after 20 concurrent turns, got %d", maxKeyClaims, len(s.KeyClaims))
	}
}
