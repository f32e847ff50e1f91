package installer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrManifestRead is returned when the cache manifest exists but cannot be parsed.
var ErrManifestRead = errors.New("failed to read package manifest")

// InstalledPackage is one entry from the cache manifest, tagged with whether
// it came from the devDependencies map.
type InstalledPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dev     bool   `json:"dev"`
}

// manifest mirrors the package.json subset this server consumes. The file
// format is dictated by npm, not by this server.
type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ListInstalled reads the cache directory's package.json and returns its
// regular and development dependencies as a unified list. A missing cache
// directory or manifest yields an empty list, not an error.
func (i *Installer) ListInstalled() ([]InstalledPackage, error) {
	manifestPath := filepath.Join(i.cacheDir, "package.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []InstalledPackage{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrManifestRead, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestRead, err)
	}

	installed := make([]InstalledPackage, 0, len(m.Dependencies)+len(m.DevDependencies))
	for name, version := range m.Dependencies {
		installed = append(installed, InstalledPackage{Name: name, Version: version, Dev: false})
	}
	for name, version := range m.DevDependencies {
		installed = append(installed, InstalledPackage{Name: name, Version: version, Dev: true})
	}

	// Map iteration order is random; keep the listing stable.
	sort.Slice(installed, func(a, b int) bool {
		if installed[a].Dev != installed[b].Dev {
			return !installed[a].Dev
		}
		return installed[a].Name < installed[b].Name
	})

	return installed, nil
}
