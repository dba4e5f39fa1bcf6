package reloader

import "github.com/dshills/redefine-mcp/pkg/types"

// BuildManifest pairs every export of unit with a publishing entry, in the
// order given. Blacklisted names are returned separately and never published.
func BuildManifest(unit string, exports []string, blacklist *types.Blacklist) (types.Manifest, []string) {
	manifest := make(types.Manifest, 0, len(exports))
	var skipped []string
	seen := make(map[string]struct{}, len(exports))

	for _, name := range exports {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if blacklist.Contains(name) {
			skipped = append(skipped, name)
			continue
		}
		manifest = append(manifest, types.PublishEntry{Unit: unit, LocalName: name})
	}
	return manifest, skipped
}
