// Package api holds the published OpenAPI document, compiled into every
// binary that serves it.
package api

import _ "embed"

// OpenAPI is the raw openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
