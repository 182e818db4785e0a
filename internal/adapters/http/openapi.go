package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISource []byte

// openAPIDocument returns the embedded document as JSON, built on first use.
var openAPIDocument = sync.OnceValues(func() ([]byte, error) {
	return buildOpenAPI(openAPISource, moduleVersion())
})

// buildOpenAPI checks the YAML document and renders it as JSON. A non-empty
// version replaces info.version.
func buildOpenAPI(src []byte, version string) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parsing openapi document: %w", err)
	}

	if v, _ := doc["openapi"].(string); !strings.HasPrefix(v, "3.") {
		return nil, fmt.Errorf("openapi document: unsupported version %q", v)
	}
	if paths, _ := doc["paths"].(map[string]any); len(paths) == 0 {
		return nil, errors.New("openapi document: no paths")
	}
	info, ok := doc["info"].(map[string]any)
	if !ok {
		return nil, errors.New("openapi document: missing info")
	}
	if version != "" {
		info["version"] = strings.TrimPrefix(version, "v")
	}

	return json.MarshalIndent(jsonValue(doc), "", "  ")
}

// jsonValue rewrites mappings with non-string keys, such as unquoted
// response codes, into string-keyed maps.
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for key, value := range v {
			v[key] = jsonValue(value)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[fmt.Sprint(key)] = jsonValue(value)
		}
		return out
	case []any:
		for i, value := range v {
			v[i] = jsonValue(value)
		}
		return v
	default:
		return v
	}
}

// moduleVersion is the version stamped into the binary, empty for
// development builds.
func moduleVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return ""
	}
	return bi.Main.Version
}
