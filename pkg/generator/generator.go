package generator

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the backing model could not produce a reply
// (timeout, connection failure, or an empty completion). Callers treat it as
// a failed turn and leave game state untouched.
var ErrUnavailable = errors.New("persona generator unavailable")

// Exchange is one prior question/answer pair with a persona
type Exchange struct {
	Question string
	Answer   string
}

// Request carries everything a persona needs to answer in character
type Request struct {
	// System is the persona system prompt including hidden guilt instructions
	System string
	// History holds prior exchanges with this persona, oldest first
	History []Exchange
	// Question is the investigator's new question, already framed by the caller
	Question string
}

// Generator produces an in-character reply for a persona.
// Implementations are free to block; the session engine never calls this
// directly - the reply text is obtained first and then fed into the engine.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelIdentifier is implemented by generators that can report their model ID
type ModelIdentifier interface {
	ModelID() string
}
