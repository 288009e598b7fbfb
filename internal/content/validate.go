package content

import (
	"fmt"
	"sort"
	"strings"
)

// Validate performs all structural checks on the catalog.
// Returns a combined error describing all problems found, or nil if valid.
func (c *Catalog) Validate() error {
	var errs []string

	if len(c.levels) == 0 {
		errs = append(errs, "no levels defined")
	}

	// Ranges must partition 1..100 with no gaps or overlaps
	sorted := make([]Range, len(c.levels))
	for i, l := range c.levels {
		sorted[i] = l.Range
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	next := 1
	for _, r := range sorted {
		if r.Min != next {
			errs = append(errs, fmt.Sprintf("level %s: expected to start at %d", r, next))
		}
		next = r.Max + 1
	}
	if len(sorted) > 0 && next != 101 {
		errs = append(errs, fmt.Sprintf("levels end at %d, want 100", next-1))
	}

	for i, l := range c.levels {
		if i > 0 && l.Range.Min < c.levels[i-1].Range.Min {
			errs = append(errs, fmt.Sprintf("level %s: out of order", l.Range))
		}
		if len(l.Exercises) != ExercisesPerLevel {
			errs = append(errs, fmt.Sprintf("level %s: has %d exercises, want %d", l.Range, len(l.Exercises), ExercisesPerLevel))
		}
		for j, ex := range l.Exercises {
			prefix := fmt.Sprintf("level %s exercise %d", l.Range, j+1)
			if strings.TrimSpace(ex.Question) == "" {
				errs = append(errs, prefix+": empty question")
			}
			if !ex.Kind.Valid() {
				errs = append(errs, fmt.Sprintf("%s: unknown kind %q", prefix, ex.Kind))
			}
			if len(ex.Hints) < MinHints {
				errs = append(errs, fmt.Sprintf("%s: has %d hints, want at least %d", prefix, len(ex.Hints), MinHints))
			}
		}
	}

	if len(c.words) == 0 {
		errs = append(errs, "no diversion words defined")
	}
	for _, w := range c.words {
		if w.Text == "" {
			errs = append(errs, "diversion word with empty text")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("content validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
