// Package api embeds the OpenAPI document of the remote expense API.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
