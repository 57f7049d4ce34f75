package assets

import (
	"embed"
	"io/fs"
)

//go:embed embedded_schemas
var Schemas embed.FS

// GetSchemasFS returns the embedded schema tree rooted at embedded_schemas.
func GetSchemasFS() fs.FS {
	if sub, err := fs.Sub(Schemas, "embedded_schemas"); err == nil {
		return sub
	}
	return Schemas
}

// GetSchema returns the raw bytes of an embedded schema by path relative to
// the schema root (e.g. "precommit/config-v1.yaml").
func GetSchema(path string) ([]byte, bool) {
	data, err := fs.ReadFile(GetSchemasFS(), path)
	if err != nil {
		return nil, false
	}
	return data, len(data) > 0
}
