package swagger

import _ "embed"

// OpenAPI holds the embedded openapi.yaml document.
//
//go:embed openapi.yaml
var OpenAPI []byte
