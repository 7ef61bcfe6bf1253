package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaID = "https://github.com/lukemcguire/webprobe/schemas/config-v1.json"

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// the Config struct using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	r.RequiredFromJSONSchemaTags = true

	s := r.Reflect(&Config{})
	s.ID = schemaID
	s.Title = "webprobe configuration v1"
	s.Description = "Schema for webprobe YAML configuration files. Every key is optional and overrides the built-in default."

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// validateDocument checks a decoded YAML document against the generated schema.
// doc must already be in JSON data model form (maps, slices, float64, string, bool).
func validateDocument(doc any) error {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("config-v1.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("config-v1.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		var ve *sjsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		var msgs []string
		for _, cause := range flattenValidationErrors(ve) {
			path := "/" + strings.Join(cause.InstanceLocation, "/")
			msgs = append(msgs, fmt.Sprintf("%s: %v", path, cause.ErrorKind))
		}
		return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
