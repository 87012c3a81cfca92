package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ModInfoFile is the build metadata descriptor expected at the root of a
// checked-out featured-mod tree.
const ModInfoFile = "mod_info.lua"

// ModInfo is the subset of the mod descriptor the deployment pipeline
// consumes.
type ModInfo struct {
	Name    string
	Version int
}

// Descriptor entries look like `version = 3701` or `name = "Forged Alliance"`.
var modInfoEntry = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?)\s*,?\s*$`)

// ReadModInfo parses the mod descriptor in dir and extracts the fields
// needed to version a deployment. A missing descriptor or a missing or
// non-integer version field is an unrecoverable build error.
func ReadModInfo(dir string) (*ModInfo, error) {
	path := filepath.Join(dir, ModInfoFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mod descriptor %s: %w", path, err)
	}

	info := &ModInfo{Version: -1}
	for _, line := range strings.Split(string(data), "\n") {
		m := modInfoEntry.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], m[2]

		switch key {
		case "name":
			info.Name = strings.Trim(value, `"'`)
		case "version":
			version, err := strconv.Atoi(strings.Trim(value, `"'`))
			if err != nil {
				return nil, fmt.Errorf("mod descriptor %s has non-integer version %q", path, value)
			}
			info.Version = version
		}
	}

	if info.Version < 0 {
		return nil, fmt.Errorf("mod descriptor %s is missing required field 'version'", path)
	}
	return info, nil
}
