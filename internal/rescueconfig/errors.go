package rescueconfig

import (
	"errors"
	"fmt"
)

// ConfigError is a missing or invalid configuration value.
type ConfigError struct {
	Variable string
	Message  string
	Err      error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s: %s", e.Variable, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError for variable. An
// empty variable matches any ConfigError.
func IsConfigError(err error, variable string) bool {
	var ce *ConfigError
	if !errors.As(err, &ce) {
		return false
	}
	return variable == "" || ce.Variable == variable
}
