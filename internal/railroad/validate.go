package railroad

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	locomotiveSchema  = "locomotive.json"
	switchGroupSchema = "switch-group.json"
	serverSchema      = "server.json"
)

// validator checks payloads against the embedded JSON schemas before they are
// decoded into typed values.
type validator struct {
	schemas map[string]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	compiler := jsonschema.NewCompiler()
	names := []string{locomotiveSchema, switchGroupSchema, serverSchema}
	for _, name := range names {
		f, err := schemaFS.Open("schema/" + name)
		if err != nil {
			return nil, fmt.Errorf("open schema %s: %w", name, err)
		}
		err = compiler.AddResource(name, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", name, err)
		}
	}

	v := &validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// validate checks raw JSON against the named schema.
func (v *validator) validate(name string, raw []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
