package llm

import "testing"

func TestLookupCost(t *testing.T) {
	c := LookupCost("gemini-1.5-pro")
	if c == nil {
		t.Fatal("expected pricing for the default model")
	}
	got := c.Cost(1_000_000, 200_000)
	if got < 2.249 || got > 2.251 {
		t.Errorf("cost = %f, want 2.25", got)
	}
	if LookupCost("no-such-model") != nil {
		t.Error("unknown model should have no cost")
	}
}
