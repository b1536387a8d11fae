package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ToolDefinition binds a tool name to its declared input schema and handler.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema InputSchema
	Function    func(ctx context.Context, input json.RawMessage) (string, error)
}

// InputSchema is the object schema a tool declares for its arguments.
type InputSchema struct {
	Properties map[string]any
	Required   []string
}

// Schema is the provider-neutral tool offering sent to a model.
type Schema struct {
	Name        string
	Description string
	Input       InputSchema
}

// Parameters renders the input schema as a JSON Schema object.
func (s Schema) Parameters() map[string]any {
	props := s.Input.Properties
	if props == nil {
		props = map[string]any{}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(s.Input.Required) > 0 {
		out["required"] = s.Input.Required
	}
	return out
}

// Schema returns the offering for this definition.
func (d ToolDefinition) Schema() Schema {
	return Schema{Name: d.Name, Description: d.Description, Input: d.InputSchema}
}

// GenerateSchema derives an input schema from the json and jsonschema tags of T.
// Fields without omitempty are required.
func GenerateSchema[T any]() InputSchema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	props := map[string]any{}
	if schema.Properties != nil {
		// Round-trip through JSON to get plain maps every provider SDK accepts.
		b, err := json.Marshal(schema.Properties)
		if err == nil {
			err = json.Unmarshal(b, &props)
		}
		if err != nil {
			panic(fmt.Sprintf("tools: input schema for %T: %v", v, err))
		}
	}
	return InputSchema{Properties: props, Required: schema.Required}
}
