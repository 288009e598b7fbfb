package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Attempt records a single evaluated answer.
type Attempt struct {
	ent.Schema
}

func (Attempt) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "attempts"},
	}
}

func (Attempt) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (Attempt) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_key"),
		field.String("level"),
		field.Int("exercise_index").
			Comment("0-based index within the level"),
		field.Bool("correct"),
		field.Int("attempt_number").
			Comment("1-based attempt count for this exercise"),
		field.Int64("recorded_at").
			Comment("Unix milliseconds when the answer was evaluated"),
	}
}

func (Attempt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_key"),
		index.Fields("learner_key", "level"),
	}
}
