// Package diversion runs the unscramble-the-word break that follows three
// failed attempts at an exercise. A diversion lasts exactly RoundsPerBreak
// rounds; each round ends when the word is guessed or revealed.
package diversion

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/lexi/internal/content"
)

// RoundsPerBreak is the number of resolved rounds that ends a diversion.
const RoundsPerBreak = 2

// Result describes how a guess resolved.
type Result int

const (
	// Solved means the guess matched the word.
	Solved Result = iota
	// SecondHint means the guess missed and the first-letter hint is now shown.
	SecondHint
	// Revealed means the guess missed after the second hint and the word was given away.
	Revealed
)

func (r Result) String() string {
	switch r {
	case Solved:
		return "solved"
	case SecondHint:
		return "second-hint"
	case Revealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Signal tells the caller whether the diversion goes on.
type Signal int

const (
	Continue Signal = iota
	Complete
)

func (s Signal) String() string {
	if s == Complete {
		return "complete"
	}
	return "continue"
}

// Round is one word to unscramble.
type Round struct {
	Word               string
	Scrambled          string
	Hint               string
	SecondHintRevealed bool
}

// FirstLetter returns the first character of the word.
func (r Round) FirstLetter() string {
	ch, _ := utf8.DecodeRuneInString(r.Word)
	if ch == utf8.RuneError {
		return ""
	}
	return string(ch)
}

// Outcome is the result of SubmitGuess.
type Outcome struct {
	Result Result
	Signal Signal
	// Round is the round the guess was made against.
	Round Round
	// Next is the freshly issued round when a round resolved and the
	// diversion continues. It is nil otherwise.
	Next *Round
}

// Controller holds the state of one diversion. It is not safe for concurrent
// use; the session serializes access.
type Controller struct {
	words   []content.Word
	rng     *rand.Rand
	solved  int
	current *Round
}

// NewController creates a controller drawing from words. A nil rng uses a
// randomly seeded source.
func NewController(words []content.Word, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Controller{words: words, rng: rng}
}

// IssueRound picks a word uniformly at random, scrambles it and makes it the
// current round.
func (c *Controller) IssueRound() Round {
	w := c.words[c.rng.IntN(len(c.words))]
	r := Round{Word: w.Text, Scrambled: c.scramble(w.Text), Hint: w.Hint}
	c.current = &r
	return r
}

// scramble shuffles the letters of word with Fisher–Yates. The result may
// equal the input.
func (c *Controller) scramble(word string) string {
	runes := []rune(word)
	for i := len(runes) - 1; i > 0; i-- {
		j := c.rng.IntN(i + 1)
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// SubmitGuess judges text against the current round. If no round has been
// issued yet one is issued first.
func (c *Controller) SubmitGuess(text string) Outcome {
	if c.current == nil {
		c.IssueRound()
	}
	round := *c.current

	if strings.EqualFold(strings.TrimSpace(text), round.Word) {
		return c.resolve(Solved, round)
	}
	if !round.SecondHintRevealed {
		c.current.SecondHintRevealed = true
		return Outcome{Result: SecondHint, Signal: Continue, Round: *c.current}
	}
	return c.resolve(Revealed, round)
}

func (c *Controller) resolve(res Result, round Round) Outcome {
	c.solved++
	if c.solved >= RoundsPerBreak {
		c.current = nil
		return Outcome{Result: res, Signal: Complete, Round: round}
	}
	next := c.IssueRound()
	return Outcome{Result: res, Signal: Continue, Round: round, Next: &next}
}

// WordsSolved returns the number of resolved rounds, guessed or revealed.
func (c *Controller) WordsSolved() int { return c.solved }

// Current returns the round awaiting a guess.
func (c *Controller) Current() (Round, bool) {
	if c.current == nil {
		return Round{}, false
	}
	return *c.current, true
}

// Done reports whether the diversion has finished.
func (c *Controller) Done() bool { return c.solved >= RoundsPerBreak }
