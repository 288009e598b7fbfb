package session

// HintFor returns the hint shown after the given failed attempt (1-based).
func HintFor(hints []string, attemptNumber int) (string, bool) {
	if attemptNumber < 1 || attemptNumber > len(hints) {
		return "", false
	}
	return hints[attemptNumber-1], true
}
