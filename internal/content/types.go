package content

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies the style of an exercise. The answer evaluator picks its
// deterministic comparison rule from it.
type Kind string

const (
	KindText              Kind = "text"
	KindEmail             Kind = "email"
	KindMatching          Kind = "matching"
	KindVisualOrganizer   Kind = "visual_organizer"
	KindProofreading      Kind = "proofreading"
	KindPrioritization    Kind = "prioritization"
	KindWriting           Kind = "writing"
	KindCriticalAnalysis  Kind = "critical_analysis"
	KindSimplification    Kind = "simplification"
	KindFormFilling       Kind = "form_filling"
	KindProceduralWriting Kind = "procedural_writing"
	KindScriptPractice    Kind = "script_practice"
)

// AllKinds lists every recognised exercise kind.
var AllKinds = []Kind{
	KindText, KindEmail, KindMatching, KindVisualOrganizer,
	KindProofreading, KindPrioritization, KindWriting, KindCriticalAnalysis,
	KindSimplification, KindFormFilling, KindProceduralWriting, KindScriptPractice,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Range is an inclusive severity interval, printed as "min-max".
type Range struct {
	Min int
	Max int
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Contains reports whether score falls inside the range.
func (r Range) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// ParseRange parses the "min-max" form produced by String.
func ParseRange(s string) (Range, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Range{}, fmt.Errorf("invalid range %q: want min-max", s)
	}
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if from > to {
		return Range{}, fmt.Errorf("invalid range %q: min > max", s)
	}
	return Range{Min: from, Max: to}, nil
}

// UnmarshalYAML lets catalogs spell ranges as "1-20".
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Exercise is a single prompt within a level.
type Exercise struct {
	Question string   `yaml:"question"`
	Kind     Kind     `yaml:"kind"`
	Expected string   `yaml:"expected"`
	Hints    []string `yaml:"hints"`
}

// Level groups the exercises for one severity band.
type Level struct {
	Range       Range      `yaml:"range"`
	Description string     `yaml:"description"`
	Exercises   []Exercise `yaml:"exercises"`
}

// Exercise returns the exercise at idx, or false when idx is out of bounds.
func (l *Level) Exercise(idx int) (Exercise, bool) {
	if l == nil || idx < 0 || idx >= len(l.Exercises) {
		return Exercise{}, false
	}
	return l.Exercises[idx], true
}

// Word is an entry in the unscramble game catalog.
type Word struct {
	Text string `yaml:"word"`
	Hint string `yaml:"hint"`
}
