// Package roster loads and validates the deacon roster consumed by the
// schedule generator.
package roster

import (
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "roster"

// EmbeddedRoster holds the content of the roster file, typically passed from
// main.go via go:embed.
type EmbeddedRoster []byte

// Roster is the validated list of deacons eligible for scheduling.
type Roster struct {
	// Deacons is the ordered list of deacon names.
	Deacons []string `yaml:"deacons"`
}

// rosterFile mirrors the on-disk layout of the roster file.
type rosterFile struct {
	Roster Roster `yaml:"roster"`
}

// Load parses a roster from YAML bytes and validates it.
func Load(data []byte) (*Roster, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal roster file", err, false, false)
	}

	r := file.Roster
	if err := r.Validate(); err != nil {
		return nil, err
	}

	logger.Debugf("Loaded roster with %d deacons.", len(r.Deacons))
	return &r, nil
}

// Validate checks that the roster is non-empty and free of blank or duplicate
// names.
func (r *Roster) Validate() error {
	if len(r.Deacons) == 0 {
		return exception.NewBatchError(moduleName, "the deacon roster cannot be empty", exception.ErrEmptyRoster, false, false)
	}

	seen := make(map[string]struct{}, len(r.Deacons))
	for _, name := range r.Deacons {
		if name == "" {
			return exception.NewBatchErrorf(moduleName, "roster contains a blank deacon name")
		}
		if _, dup := seen[name]; dup {
			return exception.NewBatchErrorf(moduleName, "roster contains duplicate deacon name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Names returns a copy of the deacon names. Callers may mutate the returned
// slice freely.
func (r *Roster) Names() []string {
	names := make([]string, len(r.Deacons))
	copy(names, r.Deacons)
	return names
}
