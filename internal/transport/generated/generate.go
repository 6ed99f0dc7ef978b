package generated

import _ "embed"

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml openapi.yaml

// Spec is the OpenAPI document served at /openapi.yaml. Its server URL is the
// PLUGIN_HOSTNAME placeholder, replaced per request.
//
//go:embed openapi.yaml
var Spec []byte
