package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
	"github.com/muffingang/go-interrogate-cli/internal/engine"
)

const accuseChoice = "Accuse now"

// RunInteractive drives the interrogation from the terminal: pick a persona,
// type a question, read the reply, repeat until budgets run out or the player
// accuses.
func RunInteractive(ctx context.Context, game *Game) error {
	intro, err := game.Start()
	if err != nil {
		return err
	}
	fmt.Println(intro)
	fmt.Println(strings.Repeat("=", 60))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "❓ > ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize interactive mode: %w", err)
	}
	defer rl.Close()

	session := game.Session()
	for session.State() == engine.StateInProgress {
		printBudgets(session)

		personaID, accuse, err := selectPersona(session)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) {
				fmt.Println("\n👋 Goodbye!")
				return nil
			}
			return err
		}
		if accuse {
			if err := runAccusation(game); err != nil {
				return err
			}
			continue
		}

		question, err := readQuestion(rl, personaID)
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("👋 Goodbye!")
				return nil
			}
			return err
		}
		if question == "" {
			fmt.Println("Ask something.")
			continue
		}

		obs, err := game.Ask(ctx, personaID, question)
		if err != nil {
			if errors.Is(err, engine.ErrGenerationUnavailable) {
				fmt.Printf("❌ %s is not answering right now: %v\n", personaID, err)
				continue
			}
			if errors.Is(err, engine.ErrBudgetExhausted) {
				fmt.Printf("No questions left for %s.\n", personaID)
				continue
			}
			return err
		}
		printObservation(obs)
	}

	if session.State() == engine.StateAwaitingAccusation {
		fmt.Println("You have no questions left. Time to accuse.")
		return runAccusation(game)
	}
	return nil
}

// printBudgets shows each persona's remaining questions
func printBudgets(session *engine.Session) {
	var parts []string
	for _, p := range session.Personas() {
		remaining, err := session.QuestionsRemaining(p.ID)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", p.Name, remaining))
	}
	fmt.Println("Questions left:", strings.Join(parts, ", "))
}

// selectPersona runs the promptui menu over the three personas plus accuse
func selectPersona(session *engine.Session) (string, bool, error) {
	personas := session.Personas()
	items := make([]string, 0, len(personas)+1)
	for _, p := range personas {
		items = append(items, p.Name)
	}
	items = append(items, accuseChoice)

	prompt := promptui.Select{
		Label: "Choose who to question",
		Items: items,
		Size:  len(items),
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", false, err
	}
	if items[i] == accuseChoice {
		return "", true, nil
	}
	return personas[i].ID, false, nil
}

func readQuestion(rl *readline.Instance, personaID string) (string, error) {
	rl.SetPrompt(fmt.Sprintf("❓ %s > ", personaID))
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// printObservation renders one committed turn: the reply plus what the
// analysis found
func printObservation(obs *engine.TurnObservation) {
	fmt.Printf("\n%s: %s\n\n", obs.Persona, obs.Reply)

	if len(obs.Claims) > 0 {
		fmt.Println("📋 Claims noted:")
		for _, c := range obs.Claims {
			fmt.Printf("  - %s(%s): %q\n", c.Polarity, c.Subject, c.RawText)
		}
	}
	for _, c := range obs.Contradictions {
		fmt.Printf("⚡ Contradiction (%s): %s\n", c.Kind, DescribeContradiction(c))
	}
	fmt.Printf("🔎 Suspicion for %s: %.0f (%s)\n\n", obs.Persona, obs.Score.Points, obs.Score.Tier)
}

// runAccusation asks the player for a final pick and prints the verdict
func runAccusation(game *Game) error {
	personas := game.Session().Personas()
	items := make([]string, 0, len(personas))
	for _, p := range personas {
		items = append(items, p.Name)
	}

	prompt := promptui.Select{
		Label: "Who do you accuse",
		Items: items,
		Size:  len(items),
	}
	i, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			fmt.Println("\nNo accusation made.")
			return nil
		}
		return err
	}

	verdict, reveal, err := game.Accuse(personas[i].ID)
	if err != nil {
		if errors.Is(err, engine.ErrNotReady) {
			fmt.Println("Early accusations are disabled. Keep questioning.")
			return nil
		}
		return err
	}

	fmt.Println()
	fmt.Println(reveal)
	fmt.Println("\nFinal suspicion scores:")
	for _, p := range personas {
		score := verdict.FinalScores[p.ID]
		fmt.Printf("  %s: %.0f (%s)\n", p.Name, score.Points, score.Tier)
	}
	if verdict.Correct {
		fmt.Println("\n🏆 You win!")
	} else {
		fmt.Println("\n💔 You lose.")
	}
	return nil
}
