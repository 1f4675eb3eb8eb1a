package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

var (
	PagePlanSchema  = generateSchema[PagePlan]()
	CoverPlanSchema = generateSchema[CoverPlan]()
)

// FormatHint renders a reflected JSON schema as an indented block suitable
// for embedding in a prompt, so every planner states the exact shape it
// expects instead of hand-maintaining example JSON.
func FormatHint(s *jsonschema.Schema) string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
