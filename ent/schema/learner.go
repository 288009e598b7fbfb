package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

// Learner holds the progress snapshot for one learner. The session log and
// attempt log live in their own append-only tables keyed by learner_key.
type Learner struct {
	ent.Schema
}

func (Learner) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "learners"},
	}
}

func (Learner) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_key").
			Unique().
			Comment("Lower-cased learner name"),
		field.String("name").
			Comment("Name as the learner typed it"),
		field.String("current_level").
			Optional().
			Nillable().
			Comment("Active level range, e.g. 21-40; NULL when no level is active"),
		field.Int("current_exercise_index").
			Default(0),
		field.Int("completed_exercises").
			Default(0),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}
