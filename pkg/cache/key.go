package cache

import (
	"sort"
	"strings"
)

// keyPrefix namespaces every gateway key.
const keyPrefix = "api"

// keyEscaper keeps the separator out of segments and values. The escape
// character itself is escaped first so distinct inputs stay distinct.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "=", "%3D")

// Key identifies a cached operation result.
type Key struct {
	// Segments name the resource (e.g. "coins", "bitcoin", "chart").
	Segments []string

	// Params are the parameters that change the result (e.g. {"days": "7"}).
	Params map[string]string
}

// String generates a deterministic cache key string.
// Format: api:segment1:segment2:param1=val1:param2=val2
//
// Segments, names and values are escaped, so a ':' inside a coin id can
// never shift the key onto another resource.
//
// Example:
//
//	api:coins:bitcoin:chart:days=7
func (k Key) String() string {
	parts := make([]string, 0, 1+len(k.Segments)+len(k.Params))
	parts = append(parts, keyPrefix)

	for _, seg := range k.Segments {
		parts = append(parts, keyEscaper.Replace(seg))
	}

	// Params are sorted for determinism
	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, keyEscaper.Replace(name)+"="+keyEscaper.Replace(k.Params[name]))
		}
	}

	return strings.Join(parts, ":")
}
