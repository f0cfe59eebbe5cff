package catalog

import (
	"net/url"
	"strings"
)

// ResolveImage maps a stored image reference to a displayable URL.
// Absolute URLs pass through; relative paths are joined onto base.
func ResolveImage(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if base == "" {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
