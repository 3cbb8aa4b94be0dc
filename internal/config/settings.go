package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	pkgLogger "github.com/muffingang/go-interrogate-cli/pkg/logger"
)

// Settings represents the main application settings
type Settings struct {
	LLM        LLMSettings        `json:"llm"`
	Game       GameSettings       `json:"game"`
	Scoring    ScoringSettings    `json:"scoring"`
	Transcript TranscriptSettings `json:"transcript"`
	Memory     MemorySettings     `json:"memory"`
	LogLevel   string             `json:"log_level"`
}

// LLMSettings contains the generator backend configuration
type LLMSettings struct {
	Backend   string `json:"backend"`              // "ollama", "anthropic", "openai", or "gemini"
	Model     string `json:"model"`                // default model when a persona has no mapping
	MaxTokens int    `json:"max_tokens,omitempty"` // maximum tokens per reply (0 = backend default)
	// Models maps persona ID to model name so each gang member can run on a
	// different model
	Models map[string]string `json:"models,omitempty"`
}

// GameSettings contains interrogation rules
type GameSettings struct {
	QuestionsPerPersona  int   `json:"questions_per_persona"`
	AllowEarlyAccusation bool  `json:"allow_early_accusation"`
	Seed                 int64 `json:"seed,omitempty"` // 0 = random culprit each game
}

// ScoringSettings contains suspicion weights and tier thresholds
type ScoringSettings struct {
	CrossContradiction float64 `json:"cross_contradiction"`
	SelfContradiction  float64 `json:"self_contradiction"`
	HotSubjectDenial   float64 `json:"hot_subject_denial"`
	MediumThreshold    float64 `json:"medium_threshold"`
	HighThreshold      float64 `json:"high_threshold"`
}

// TranscriptSettings controls the on-disk transcript buffer
type TranscriptSettings struct {
	Dir           string `json:"dir"`
	MaxPerPersona int    `json:"max_per_persona"`
}

// MemorySettings controls rolling persona memory summaries
type MemorySettings struct {
	Dir string `json:"dir"`
}

// LoadSettings loads application settings from a JSON file
func LoadSettings(configPath string) (*Settings, error) {
	// If config path is empty, search in order of preference
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			// No settings file found, create default one and return defaults
			return createDefaultSettingsFile()
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		settings, _ := createSettingsFileAtPath(configPath)
		return settings, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	applyDefaults(&settings)
	return &settings, nil
}

// SaveSettings saves application settings to a JSON file
func SaveSettings(configPath string, settings *Settings) error {
	if configPath == "" {
		configPath = findSettingsFile()
		if configPath == "" {
			configPath = filepath.Join(".interrogate", "settings.json")
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// GetDefaultSettings returns default application settings.
// The default persona-to-model mapping mirrors the original three local
// models, one per gang member.
func GetDefaultSettings() *Settings {
	return &Settings{
		LLM: LLMSettings{
			Backend: "ollama",
			Model:   "gemma3:4b",
			Models: map[string]string{
				"Crumbs": "gemma3:4b",
				"Cherry": "qwen3:8b",
				"Glaze":  "llama2-uncensored",
			},
		},
		Game: GameSettings{
			QuestionsPerPersona:  2,
			AllowEarlyAccusation: true,
		},
		Scoring: ScoringSettings{
			CrossContradiction: 3,
			SelfContradiction:  2,
			HotSubjectDenial:   1,
			MediumThreshold:    3,
			HighThreshold:      6,
		},
		Transcript: TranscriptSettings{
			Dir:           filepath.Join(".interrogate", "transcripts"),
			MaxPerPersona: 100,
		},
		Memory: MemorySettings{
			Dir: filepath.Join(".interrogate", "session_data"),
		},
		LogLevel: "info",
	}
}

// ModelFor resolves the model for a persona, falling back to the default
func (s *Settings) ModelFor(personaID string) string {
	if m, ok := s.LLM.Models[personaID]; ok && m != "" {
		return m
	}
	return s.LLM.Model
}

// findSettingsFile searches for a settings file in order of preference
func findSettingsFile() string {
	candidates := []string{
		filepath.Join(".interrogate", "settings.json"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".interrogate", "settings.json"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// createDefaultSettingsFile writes defaults to the preferred location
func createDefaultSettingsFile() (*Settings, error) {
	return createSettingsFileAtPath(filepath.Join(".interrogate", "settings.json"))
}

func createSettingsFileAtPath(path string) (*Settings, error) {
	settings := GetDefaultSettings()
	if err := SaveSettings(path, settings); err != nil {
		// Non-fatal: run with in-memory defaults
		pkgLogger.NewComponentLogger("config").Warn("Could not write default settings file", "path", path, "error", err)
	}
	return settings, nil
}

// applyDefaults fills in missing fields from the defaults
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.LLM.Backend == "" {
		settings.LLM.Backend = defaults.LLM.Backend
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = defaults.LLM.Model
	}
	if settings.Game.QuestionsPerPersona <= 0 {
		settings.Game.QuestionsPerPersona = defaults.Game.QuestionsPerPersona
	}
	if settings.Scoring == (ScoringSettings{}) {
		settings.Scoring = defaults.Scoring
	}
	if settings.Transcript.Dir == "" {
		settings.Transcript.Dir = defaults.Transcript.Dir
	}
	if settings.Transcript.MaxPerPersona <= 0 {
		settings.Transcript.MaxPerPersona = defaults.Transcript.MaxPerPersona
	}
	if settings.Memory.Dir == "" {
		settings.Memory.Dir = defaults.Memory.Dir
	}
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
}
