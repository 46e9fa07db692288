package utils

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a JSON schema from the type T for structured model output.
// The schema is strict (no additional properties) and fully inlined so it can be
// handed to the chat completion API without definition references.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var v T

	return reflector.Reflect(v)
}
