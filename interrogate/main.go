package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/muffingang/go-interrogate-cli/internal/app"
	"github.com/muffingang/go-interrogate-cli/internal/config"
	"github.com/muffingang/go-interrogate-cli/internal/scenario"
	"github.com/muffingang/go-interrogate-cli/pkg/client"
	"github.com/muffingang/go-interrogate-cli/pkg/generator"
	pkgLogger "github.com/muffingang/go-interrogate-cli/pkg/logger"
)

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("interrogate - LLM-powered interrogation game: find who stole the Grand Muffin")
	fmt.Println()
	fmt.Println("Three gang members answer your questions in character, each voiced by its")
	fmt.Println("own model. Their statements are analyzed for contradictions; accuse wisely.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  interrogate                            # Play with settings defaults (ollama)")
	fmt.Println("  interrogate -b anthropic -m claude-sonnet-4-0")
	fmt.Println("  interrogate --scenario ./my-heist.yaml # Custom mystery")
	fmt.Println("  interrogate -seed 42                   # Reproducible culprit pick")
	fmt.Println("  interrogate -v                         # Verbose debug logging")
	fmt.Println()
}

func main() {
	ctx := context.Background()

	var backend = flag.String("b", "", "LLM backend (ollama, anthropic, openai, or gemini)")
	var backendLong = flag.String("backend", "", "LLM backend (ollama, anthropic, openai, or gemini)")
	var model = flag.String("m", "", "Model name for all personas (overrides per-persona mapping)")
	var modelLong = flag.String("model", "", "Model name for all personas (overrides per-persona mapping)")
	var settingsPath = flag.String("settings", "", "Path to settings file")
	var scenarioPath = flag.String("scenario", "", "Path to a custom scenario YAML")
	var seed = flag.Int64("seed", 0, "Culprit selection seed (0 = random)")
	var budget = flag.Int("questions", 0, "Questions per persona (overrides settings)")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	// API keys commonly live in a .env next to the binary
	_ = godotenv.Load()

	logger := pkgLogger.NewComponentLogger("main")

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		logger.Error("Failed to load settings", "error", err)
		os.Exit(1)
	}

	if *verbose || *verboseLong {
		settings.LogLevel = "debug"
	}
	pkgLogger.SetGlobalLogLevel(pkgLogger.LogLevel(settings.LogLevel))

	if b := resolveStringFlag(*backend, *backendLong); b != "" {
		settings.LLM.Backend = b
	}
	if m := resolveStringFlag(*model, *modelLong); m != "" {
		settings.LLM.Model = m
		settings.LLM.Models = nil // a single explicit model voices everyone
	}
	if *seed != 0 {
		settings.Game.Seed = *seed
	}
	if *budget > 0 {
		settings.Game.QuestionsPerPersona = *budget
	}

	canon, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Error("Failed to load scenario", "error", err)
		os.Exit(1)
	}

	generators, err := buildGenerators(settings, canon)
	if err != nil {
		logger.Error("Failed to create persona generators", "error", err)
		os.Exit(1)
	}

	game, err := app.NewGame(settings, canon, generators)
	if err != nil {
		logger.Error("Failed to set up game", "error", err)
		os.Exit(1)
	}

	if err := app.RunInteractive(ctx, game); err != nil {
		logger.Error("Game ended with error", "error", err)
		os.Exit(1)
	}
}

func loadScenario(path string) (*scenario.Canon, error) {
	if path != "" {
		return scenario.LoadFromFile(path)
	}
	return scenario.LoadBuiltin()
}

// buildGenerators creates one generator per persona so each gang member can
// run on its own model. Scenario-level model overrides win over settings.
func buildGenerators(settings *config.Settings, canon *scenario.Canon) (map[string]generator.Generator, error) {
	generators := make(map[string]generator.Generator, len(canon.Personas))
	for _, p := range canon.Personas {
		model := settings.ModelFor(p.ID)
		if p.Model != "" && settings.LLM.Models != nil {
			model = p.Model
		}
		gen, err := client.NewGenerator(settings.LLM.Backend, model, settings.LLM.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("persona %s: %w", p.ID, err)
		}
		generators[p.ID] = gen
	}
	return generators, nil
}
