package llm

import "context"

// PurposeAnswerEvaluation labels requests that judge a learner's answer.
const PurposeAnswerEvaluation = "answer-evaluation"

type purposeKey struct{}

// WithPurpose tags ctx so the request log can say why a call was made.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
