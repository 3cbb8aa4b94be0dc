package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaultSettings(t *testing.T) {
	s := GetDefaultSettings()

	if s.LLM.Backend != "ollama" {
		t.Errorf("expected default backend ollama, got %q", s.LLM.Backend)
	}
	if s.Game.QuestionsPerPersona != 2 {
		t.Errorf("expected 2 questions per persona, got %d", s.Game.QuestionsPerPersona)
	}
	if !s.Game.AllowEarlyAccusation {
		t.Error("expected early accusation allowed by default")
	}
	if s.Scoring.CrossContradiction != 3 || s.Scoring.SelfContradiction != 2 || s.Scoring.HotSubjectDenial != 1 {
		t.Errorf("unexpected default scoring weights: %+v", s.Scoring)
	}
	if s.Scoring.MediumThreshold != 3 || s.Scoring.HighThreshold != 6 {
		t.Errorf("unexpected default tier thresholds: %+v", s.Scoring)
	}
	for _, pid := range []string{"Crumbs", "Cherry", "Glaze"} {
		if s.LLM.Models[pid] == "" {
			t.Errorf("expected default model mapping for %s", pid)
		}
	}
}

func TestModelFor(t *testing.T) {
	s := GetDefaultSettings()

	if got := s.ModelFor("Cherry"); got != "qwen3:8b" {
		t.Errorf("expected qwen3:8b for Cherry, got %q", got)
	}
	// Unmapped persona falls back to the default model
	if got := s.ModelFor("Inspector"); got != s.LLM.Model {
		t.Errorf("expected fallback %q, got %q", s.LLM.Model, got)
	}

	s.LLM.Models = nil
	if got := s.ModelFor("Cherry"); got != s.LLM.Model {
		t.Errorf("expected fallback with nil map, got %q", got)
	}
}

func TestLoadSettingsAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	partial := `{"llm": {"backend": "anthropic", "model": "claude-sonnet-4-0"}}`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.LLM.Backend != "anthropic" {
		t.Errorf("expected backend anthropic, got %q", s.LLM.Backend)
	}
	if s.LLM.Model != "claude-sonnet-4-0" {
		t.Errorf("expected explicit model kept, got %q", s.LLM.Model)
	}
	// Everything the file omitted is filled from defaults
	if s.Game.QuestionsPerPersona != 2 {
		t.Errorf("expected default question budget, got %d", s.Game.QuestionsPerPersona)
	}
	if s.Scoring.CrossContradiction != 3 {
		t.Errorf("expected default scoring, got %+v", s.Scoring)
	}
	if s.Transcript.Dir == "" || s.Memory.Dir == "" {
		t.Errorf("expected default dirs, got %+v / %+v", s.Transcript, s.Memory)
	}
	if s.LogLevel != "info" {
		t.Errorf("expected default log level, got %q", s.LogLevel)
	}
}

func TestLoadSettingsCreatesFileWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s.LLM.Backend != "ollama" {
		t.Errorf("expected defaults for missing file, got backend %q", s.LLM.Backend)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected settings file created at %s: %v", path, err)
	}
}

func TestLoadSettingsRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("expected parse error, got nil")
	}
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := GetDefaultSettings()
	s.Game.Seed = 42
	s.LLM.Backend = "gemini"

	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if loaded.Game.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Game.Seed)
	}
	if loaded.LLM.Backend != "gemini" {
		t.Errorf("expected backend gemini, got %q", loaded.LLM.Backend)
	}
}
