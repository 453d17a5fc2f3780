// internal/config/errors.go
package config

import "fmt"

// ConfigurationError is fatal: it is raised once at load time and aborts
// the run before any URL is processed. Bad selector or regex syntax, a
// missing field name, and a text pattern with the wrong capture-group count
// all surface as ConfigurationErrors.
type ConfigurationError struct {
	Section string // "fields", "run", or a field name
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Section, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError wraps err with the configuration section it came from.
func NewConfigurationError(section string, err error) *ConfigurationError {
	return &ConfigurationError{Section: section, Err: err}
}
