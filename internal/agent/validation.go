package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache holds compiled schemas keyed by tool name; tool schemas
// are static for the life of the process.
var schemaCache sync.Map

// validateParams checks raw tool arguments against the tool's JSON
// Schema. The returned error message names the offending field so the
// model can correct the call.
func validateParams(toolName string, schema, params json.RawMessage) error {
	if len(params) > MaxToolParamsSize {
		return fmt.Errorf("arguments exceed %d bytes", MaxToolParamsSize)
	}
	if len(schema) == 0 {
		return nil
	}

	compiled, err := compiledSchema(toolName, schema)
	if err != nil {
		return fmt.Errorf("tool schema invalid: %w", err)
	}

	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	var value any
	if err := json.Unmarshal(params, &value); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	if err := compiled.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if ok := asValidationError(err, &ve); ok {
			return fmt.Errorf("invalid arguments: %s", flattenValidationError(ve))
		}
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func compiledSchema(toolName string, schema json.RawMessage) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(toolName); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiled, err := jsonschema.CompileString(toolName+".json", string(schema))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(toolName, compiled)
	return compiled, nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// flattenValidationError picks the deepest cause so the message points
// at the concrete field rather than the schema root.
func flattenValidationError(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(ve.InstanceLocation, "/")
	if loc == "" {
		return ve.Message
	}
	return fmt.Sprintf("field %q: %s", strings.ReplaceAll(loc, "/", "."), ve.Message)
}
