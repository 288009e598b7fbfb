package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LevelSession is one entry in a learner's session log: a level start or a
// completed exercise within that level.
type LevelSession struct {
	ent.Schema
}

func (LevelSession) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "level_sessions"},
	}
}

func (LevelSession) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (LevelSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("learner_key"),
		field.String("level").
			Comment("Level range, e.g. 1-20"),
		field.String("date").
			Comment("Calendar date of the entry, YYYY-MM-DD"),
		field.Int("completed_exercises").
			Default(0),
		field.Int64("recorded_at").
			Comment("Unix milliseconds when the entry was produced"),
	}
}

func (LevelSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("learner_key"),
	}
}
