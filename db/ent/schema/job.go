package schema

import (
	"encoding/json"
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/dshalev/slide-explainer/constants"
	"github.com/dshalev/slide-explainer/db/ent/schema/utils"

	"github.com/google/uuid"
)

type Job struct{ ent.Schema }

func (Job) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "jobs"},
	}
}

func (Job) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		// explicit FK; nullable so anonymous uploads carry no owner
		field.UUID("user_id", uuid.UUID{}).Optional().Nillable(),
		field.String("filename").NotEmpty(),
		field.String("source_path").NotEmpty(),
		field.String("summary_style").NotEmpty().
			Validate(utils.EnumValidator(constants.StyleStrings()...)),
		field.String("language").NotEmpty().
			Validate(utils.EnumValidator(constants.LanguageStrings()...)),
		field.String("status").NotEmpty().
			Default(string(constants.JobStatusUploaded)).
			Validate(utils.EnumValidator(constants.StatusStrings()...)),
		field.Time("created_at").Default(time.Now),
		field.Time("claimed_at").Optional().Nillable(),
		field.Time("finished_at").Optional().Nillable(),
		field.String("error_message").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.JSON("result", json.RawMessage{}).
			Optional(),
	}
}

func (Job) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("user", User.Type).
			Ref("jobs").
			Field("user_id").
			Unique(),
	}
}

func (Job) Indexes() []ent.Index {
	return []ent.Index{
		// worker discovery scans status in FIFO order
		index.Fields("status", "created_at"),
		index.Fields("user_id", "created_at"),
		index.Fields("user_id", "filename", "created_at"),
	}
}
