package handlers

import (
	"net/http"

	"github.com/invopop/jsonschema"

	"github.com/mladen4o/ClovaLink/pkg/config"
)

// Schema serves the self-describing JSON schema for config.Config, gated
// behind config.HTTPConfig.SchemaEndpointEnabled.
func Schema(w http.ResponseWriter, r *http.Request) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "CoreVault Configuration"
	schema.Description = "Configuration schema for the CoreVault storage core"

	writeJSON(w, http.StatusOK, schema)
}
