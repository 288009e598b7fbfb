package content

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var levelsYAML []byte

//go:embed words.yaml
var wordsYAML []byte

// ErrNoLevel is returned when no level contains a severity score.
var ErrNoLevel = errors.New("no level for score")

// ExercisesPerLevel is the fixed number of exercises in every level.
const ExercisesPerLevel = 3

// MinHints is the minimum number of hints an exercise must carry, one per
// failed attempt before the answer is revealed.
const MinHints = 2

// levelsFile is the YAML structure of levels.yaml.
type levelsFile struct {
	Levels []Level `yaml:"levels"`
}

// wordsFile is the YAML structure of words.yaml.
type wordsFile struct {
	Words []Word `yaml:"words"`
}

// Catalog is the immutable set of levels and diversion words.
type Catalog struct {
	levels []Level
	words  []Word
}

// Load decodes and validates a catalog from raw YAML documents.
func Load(levelsDoc, wordsDoc []byte) (*Catalog, error) {
	var lf levelsFile
	if err := yaml.Unmarshal(levelsDoc, &lf); err != nil {
		return nil, fmt.Errorf("parse levels: %w", err)
	}
	var wf wordsFile
	if err := yaml.Unmarshal(wordsDoc, &wf); err != nil {
		return nil, fmt.Errorf("parse words: %w", err)
	}

	c := &Catalog{levels: lf.Levels, words: wf.Words}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded content is
// invalid, which is a build defect rather than a runtime condition.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(levelsYAML, wordsYAML)
		if err != nil {
			panic(fmt.Sprintf("content: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Levels returns all levels in ascending range order.
func (c *Catalog) Levels() []Level {
	return c.levels
}

// Words returns the diversion word catalog.
func (c *Catalog) Words() []Word {
	return c.words
}

// LevelFor returns the level whose range contains score.
func (c *Catalog) LevelFor(score int) (*Level, error) {
	for i := range c.levels {
		if c.levels[i].Range.Contains(score) {
			return &c.levels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoLevel, score)
}

// LevelByRange looks a level up by its printed range, e.g. "21-40".
func (c *Catalog) LevelByRange(r string) (*Level, error) {
	for i := range c.levels {
		if c.levels[i].Range.String() == r {
			return &c.levels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: range %q", ErrNoLevel, r)
}

// IndexOf returns the position of the level with range r, or -1.
func (c *Catalog) IndexOf(r string) int {
	for i := range c.levels {
		if c.levels[i].Range.String() == r {
			return i
		}
	}
	return -1
}
