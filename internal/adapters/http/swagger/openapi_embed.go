package swagger

import _ "embed"

// OpenAPI holds the service's OpenAPI document, embedded at build time.
//
//go:embed openapi.yaml
var OpenAPI []byte
