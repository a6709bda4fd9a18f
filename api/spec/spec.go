// Package spec embeds the served OpenAPI document.
package spec

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
