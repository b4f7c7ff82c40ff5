package file

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema describes the backing file: an object of records, each
// carrying a string kind tag and a string id.
const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"required": ["__class__", "id"],
		"properties": {
			"__class__": {"type": "string", "minLength": 1},
			"id": {"type": "string", "minLength": 1}
		}
	}
}`

const documentSchemaID = "hbnb-store.json"

// documentValidator checks the shape of a store document before any record
// is decoded.
type documentValidator struct {
	schema *jsonschema.Schema
}

func newDocumentValidator() (*documentValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(documentSchemaID, strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(documentSchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &documentValidator{schema: schema}, nil
}

// Validate returns ErrMalformedDocument if data is not valid JSON or does not
// match the document schema.
func (v *documentValidator) Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}
