package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/lexi/ent/schema"
)

// Table names, taken from the entsql annotations on the ent schemas.
const (
	tableLearners    = "learners"
	tableSessions    = "level_sessions"
	tableAttempts    = "attempts"
	tableLLMRequests = "llm_request_events"
)

// schemas lists every ent schema the store migrates.
var schemas = []ent.Interface{
	entschema.Learner{},
	entschema.LevelSession{},
	entschema.Attempt{},
	entschema.LLMRequestEvent{},
}

// migrate creates or upgrades all tables. The ent schema definitions are
// translated to migration tables at runtime, so no generated client is
// needed.
func migrate(ctx context.Context, drv dialect.Driver) error {
	tables := make([]*schema.Table, 0, len(schemas))
	for _, def := range schemas {
		t, err := tableFor(def)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}

	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(false))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// tableFor builds the migration table for one ent schema: an auto-increment
// id, the mixin fields, the schema fields, then all indexes.
func tableFor(def ent.Interface) (*schema.Table, error) {
	name := tableName(def)
	if name == "" {
		return nil, fmt.Errorf("schema %T has no table annotation", def)
	}

	t := schema.NewTable(name)
	t.AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true})

	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range def.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, def.Fields()...)
	indexes = append(indexes, def.Indexes()...)

	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
		}
		t.AddColumn(columnFor(d))
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		idxName := d.StorageKey
		if idxName == "" {
			idxName = name + "_" + strings.Join(d.Fields, "_")
		}
		t.AddIndex(idxName, d.Unique, d.Fields)
	}

	return t, nil
}

func tableName(def ent.Interface) string {
	for _, a := range def.Annotations() {
		switch ant := a.(type) {
		case entsql.Annotation:
			if ant.Table != "" {
				return ant.Table
			}
		case *entsql.Annotation:
			if ant.Table != "" {
				return ant.Table
			}
		}
	}
	return ""
}

// columnFor maps a field descriptor onto a column. Function defaults such as
// time.Now are applied by the repositories on insert.
func columnFor(d *field.Descriptor) *schema.Column {
	name := d.Name
	if d.StorageKey != "" {
		name = d.StorageKey
	}
	c := &schema.Column{
		Name:     name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Nullable: d.Optional,
		Size:     int64(d.Size),
		Comment:  d.Comment,
	}
	switch v := d.Default.(type) {
	case string, bool, int, int64, float64:
		c.Default = v
	}
	return c
}
