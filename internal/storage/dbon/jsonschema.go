package dbon

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/leengari/dbon/internal/domain/data"
)

// JSONSchema describes the DBON document shape as a JSON Schema, for editors
// and external tooling. Alignment rules (numOfCols == len(cols) and so on)
// cannot be expressed in JSON Schema; Check remains the authority.
func JSONSchema() *jsonschema.Schema {
	valueType := reflect.TypeFor[data.Value]()
	r := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == valueType {
				return &jsonschema.Schema{
					Description: "Cell value: string, number, boolean, null, array or object",
				}
			}
			return nil
		},
	}
	s := r.Reflect(&Document{})
	s.Title = "DBON"
	s.Description = "Database object notation: named tables with declared columns and key-aligned rows"
	return s
}
