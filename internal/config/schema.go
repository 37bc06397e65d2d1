package config

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema reflects Config into a JSON Schema document, grounded on the
// teacher's effect-catalog schema generator
// (effects/catalog/schema_generate.go): same reflector options, same
// DoNotReference choice (a single flat document is easier for an external
// inspector tool to consume than one with internal $ref hops).
func Schema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(Config{}))
	if schema == nil {
		return nil, fmt.Errorf("config: failed to reflect schema")
	}
	schema.Version = ""
	schema.Title = "Movement & Task Core Configuration"
	schema.Description = "Tunable constants for the steering simulation, tick orchestration, and debug bridge."
	return schema, nil
}
