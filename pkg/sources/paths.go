package sources

import (
	"path"
	"strings"
)

// normalizeOrigin canonicalizes a directory origin to a clean, slash
// separated, root-anchored path so equal origins compare equal.
func normalizeOrigin(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
