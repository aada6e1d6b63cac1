package matching

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema validates a JSON body against schema, which is either raw JSON
// ([]byte or string) or a decoded value such as a map.
func Schema(body []byte, schema any) error {
	compiled, err := compileSchema(schema)
	if err != nil {
		return err
	}

	data, err := decodeJSON(body)
	if err != nil {
		return err
	}

	if err := compiled.Validate(data); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: schema: %s", ErrMismatch, describeValidation(ve))
		}
		return fmt.Errorf("%w: schema: %v", ErrMismatch, err)
	}
	return nil
}

func compileSchema(schema any) (*jsonschema.Schema, error) {
	var raw []byte
	switch s := schema.(type) {
	case []byte:
		raw = s
	case string:
		raw = []byte(s)
	default:
		// Round-trip through JSON so YAML-decoded maps compile like JSON ones.
		b, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("%w: schema: %v", ErrInvalid, err)
		}
		raw = b
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrInvalid, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrInvalid, err)
	}
	return compiled, nil
}

// describeValidation flattens the leaf causes of a validation error.
func describeValidation(ve *jsonschema.ValidationError) string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return loc + ": " + ve.Message
	}
	var buf bytes.Buffer
	for i, cause := range ve.Causes {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(describeValidation(cause))
	}
	return buf.String()
}
