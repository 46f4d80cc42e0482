package config

import (
	"os"
)

// EnvironmentExpander expands environment variable placeholders within an
// input byte slice.
type EnvironmentExpander interface {
	// Expand replaces ${VAR} or $VAR placeholders in the input with the
	// values of the corresponding environment variables.
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander implements EnvironmentExpander with os.ExpandEnv.
type OsEnvironmentExpander struct{}

// NewOsEnvironmentExpander creates a new OsEnvironmentExpander.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{}
}

// Expand replaces placeholders using os.ExpandEnv. Unset variables expand to
// the empty string; the returned error is always nil.
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	return []byte(os.ExpandEnv(string(input))), nil
}
