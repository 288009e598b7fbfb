package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// EventMixin adds the ordering columns of an append-only table. Rows are
// never updated, so both columns are immutable.
type EventMixin struct {
	mixin.Schema
}

func (EventMixin) Fields() []ent.Field {
	return []ent.Field{
		// Drawn from global_sequence, so attempts, sessions and LLM
		// requests interleave in one order.
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Store-wide event order"),
		field.Time("timestamp").
			Default(func() time.Time { return time.Now().UTC() }).
			Immutable().
			Comment("When the event was written, UTC"),
	}
}

// Indexes covers time-range queries; sequence is already unique.
func (EventMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("timestamp"),
	}
}
