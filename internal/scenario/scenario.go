package scenario

import (
	"embed"
	"fmt"
	"os"

	"github.com/muffingang/go-interrogate-cli/internal/engine"
	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var embeddedFiles embed.FS

const builtinFile = "muffin.yaml"

// PersonaConfig describes one gang member as loaded from YAML
type PersonaConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Style        string `yaml:"style"`
	SystemPrompt string `yaml:"system_prompt"`
	// Model overrides the settings-level default for this persona
	Model string `yaml:"model,omitempty"`
}

// TimelineEvent is one canonical fact about the night of the theft
type TimelineEvent struct {
	Time  string `yaml:"time"`
	Event string `yaml:"event"`
}

// Canon is the full scenario: who the personas are, what subjects claims can
// be compared on, and the canonical ground truth around the theft. New
// mysteries are added by writing a new YAML file, not by changing code.
type Canon struct {
	Title      string               `yaml:"title"`
	Intro      string               `yaml:"intro"`
	Personas   []PersonaConfig      `yaml:"personas"`
	HotSubject string               `yaml:"hot_subject"`
	Subjects   []engine.SubjectRule `yaml:"subjects"`
	Timeline   []TimelineEvent      `yaml:"timeline"`
	KeyEvents  []string             `yaml:"key_events"`
	WhoSawWhat map[string][]string  `yaml:"who_saw_what"`
	// Hidden briefing appended to the system prompt depending on guilt
	GuiltyInstructions   string `yaml:"guilty_instructions"`
	InnocentInstructions string `yaml:"innocent_instructions"`
}

// EnginePersonas converts the configured personas for the session engine
func (c *Canon) EnginePersonas() []engine.Persona {
	personas := make([]engine.Persona, 0, len(c.Personas))
	for _, p := range c.Personas {
		personas = append(personas, engine.Persona{ID: p.ID, Name: p.Name})
	}
	return personas
}

// PersonaByID finds a configured persona
func (c *Canon) PersonaByID(id string) (PersonaConfig, bool) {
	for _, p := range c.Personas {
		if p.ID == id {
			return p, true
		}
	}
	return PersonaConfig{}, false
}

// SystemPromptFor assembles a persona's full system prompt, including the
// hidden guilty or innocent briefing the player never sees
func (c *Canon) SystemPromptFor(id string, guilty bool) (string, error) {
	p, ok := c.PersonaByID(id)
	if !ok {
		return "", fmt.Errorf("persona %q not in scenario", id)
	}
	hidden := c.InnocentInstructions
	if guilty {
		hidden = c.GuiltyInstructions
	}
	prompt := p.SystemPrompt
	if hidden != "" {
		prompt += "\n\n" + hidden
	}
	if notes := c.WhoSawWhat[id]; len(notes) > 0 {
		prompt += "\n\nWhat you remember seeing:"
		for _, n := range notes {
			prompt += "\n- " + n
		}
	}
	return prompt, nil
}

// LoadBuiltin loads the embedded muffin heist scenario
func LoadBuiltin() (*Canon, error) {
	data, err := embeddedFiles.ReadFile(builtinFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded scenario: %w", err)
	}
	return parse(data)
}

// LoadFromFile loads a custom scenario YAML from disk
func LoadFromFile(path string) (*Canon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Canon, error) {
	var canon Canon
	if err := yaml.Unmarshal(data, &canon); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validate(&canon); err != nil {
		return nil, err
	}
	return &canon, nil
}

func validate(c *Canon) error {
	if len(c.Personas) != 3 {
		return fmt.Errorf("scenario must define exactly 3 personas, got %d", len(c.Personas))
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("scenario must define at least one subject")
	}
	if c.HotSubject == "" {
		return fmt.Errorf("scenario must name a hot subject")
	}
	for _, s := range c.Subjects {
		if s.Subject == c.HotSubject {
			return nil
		}
	}
	return fmt.Errorf("hot subject %q is not in the subject table", c.HotSubject)
}
