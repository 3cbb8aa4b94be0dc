package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	canon, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	if len(canon.Personas) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(canon.Personas))
	}
	want := map[string]bool{"Crumbs": false, "Cherry": false, "Glaze": false}
	for _, p := range canon.Personas {
		if _, ok := want[p.ID]; !ok {
			t.Errorf("unexpected persona %q", p.ID)
		}
		want[p.ID] = true
		if p.SystemPrompt == "" {
			t.Errorf("persona %s has no system prompt", p.ID)
		}
	}
	for id, seen := range want {
		if !seen {
			t.Errorf("persona %s missing from builtin scenario", id)
		}
	}

	if canon.HotSubject != "possession" {
		t.Errorf("expected hot subject possession, got %q", canon.HotSubject)
	}
	if len(canon.Subjects) == 0 {
		t.Error("expected subject rules in builtin scenario")
	}
	if canon.Intro == "" {
		t.Error("expected an intro")
	}
}

func TestEnginePersonas(t *testing.T) {
	canon, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}
	personas := canon.EnginePersonas()
	if len(personas) != 3 {
		t.Fatalf("expected 3 engine personas, got %d", len(personas))
	}
	for _, p := range personas {
		if p.ID == "" || p.Name == "" {
			t.Errorf("engine persona missing fields: %+v", p)
		}
	}
}

func TestSystemPromptForIncludesHiddenBriefing(t *testing.T) {
	canon, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin failed: %v", err)
	}

	guilty, err := canon.SystemPromptFor("Cherry", true)
	if err != nil {
		t.Fatalf("SystemPromptFor(guilty) failed: %v", err)
	}
	innocent, err := canon.SystemPromptFor("Cherry", false)
	if err != nil {
		t.Fatalf("SystemPromptFor(innocent) failed: %v", err)
	}

	if guilty == innocent {
		t.Error("guilty and innocent prompts must differ")
	}
	if !strings.Contains(guilty, canon.GuiltyInstructions) {
		t.Error("guilty prompt missing guilty briefing")
	}
	if !strings.Contains(innocent, canon.InnocentInstructions) {
		t.Error("innocent prompt missing innocent briefing")
	}

	if _, err := canon.SystemPromptFor("Inspector", false); err == nil {
		t.Error("expected error for unknown persona")
	}
}

func TestLoadFromFileValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"too few personas", `
title: Broken
personas:
  - {id: A, name: A, system_prompt: x}
hot_subject: possession
subjects:
  - subject: possession
    keywords: [muffin]
`},
		{"no subjects", `
title: Broken
personas:
  - {id: A, name: A, system_prompt: x}
  - {id: B, name: B, system_prompt: x}
  - {id: C, name: C, system_prompt: x}
hot_subject: possession
`},
		{"hot subject not in table", `
title: Broken
personas:
  - {id: A, name: A, system_prompt: x}
  - {id: B, name: B, system_prompt: x}
  - {id: C, name: C, system_prompt: x}
hot_subject: motive
subjects:
  - subject: possession
    keywords: [muffin]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write scenario: %v", err)
			}
			if _, err := LoadFromFile(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFileValid(t *testing.T) {
	content := `
title: Custom Heist
intro: Someone took the cake.
personas:
  - {id: A, name: Alpha, system_prompt: You are Alpha.}
  - {id: B, name: Beta, system_prompt: You are Beta.}
  - {id: C, name: Gamma, system_prompt: You are Gamma.}
hot_subject: possession
subjects:
  - subject: possession
    keywords: [cake, took]
  - subject: location
    keywords: [pantry]
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}

	canon, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if canon.Title != "Custom Heist" {
		t.Errorf("expected title Custom Heist, got %q", canon.Title)
	}
	if len(canon.Subjects) != 2 {
		t.Errorf("expected 2 subjects, got %d", len(canon.Subjects))
	}
}
