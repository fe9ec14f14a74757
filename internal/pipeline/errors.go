package pipeline

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/bighogz/form4-sales/internal/secapi"
)

// ConfigError means the run could not start because of its settings.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// InputError means the user supplied an unusable target date.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "invalid input: " + e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// Category groups failures by what the operator should do about them.
type Category int

const (
	CategoryUnexpected Category = iota
	CategoryConfiguration
	CategoryInput
	CategoryUpstream
	CategoryTransport
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryInput:
		return "input"
	case CategoryUpstream:
		return "upstream"
	case CategoryTransport:
		return "transport"
	}
	return "unexpected"
}

// Failure is a classified error ready for display.
type Failure struct {
	Category Category
	Label    string
	Detail   string
	Hint     string
}

// Classify maps err onto a Failure. A nil error yields the zero Failure.
func Classify(err error) Failure {
	if err == nil {
		return Failure{}
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return Failure{
			Category: CategoryConfiguration,
			Label:    "Configuration error",
			Detail:   cfgErr.Error(),
			Hint:     "Set SEC_API_KEY in the environment or a .env file, and check config.yaml and FORM4_* variables.",
		}
	}

	var inErr *InputError
	if errors.As(err, &inErr) {
		return Failure{
			Category: CategoryInput,
			Label:    "Input error",
			Detail:   inErr.Error(),
			Hint:     "Enter the date as YYYY-MM-DD.",
		}
	}

	var apiErr *secapi.APIError
	if errors.As(err, &apiErr) {
		return Failure{
			Category: CategoryUpstream,
			Label:    "API error",
			Detail:   apiErr.PrettyPayload(),
			Hint:     "Check the API key, the query and your sec-api.io plan limits.",
		}
	}

	if secapi.IsTransport(err) {
		return Failure{
			Category: CategoryTransport,
			Label:    "Network error",
			Detail:   err.Error(),
			Hint:     "Check your internet connection and try again.",
		}
	}

	return Failure{
		Category: CategoryUnexpected,
		Label:    "Unexpected error",
		Detail:   eris.ToString(err, true),
		Hint:     "Re-run with log.level=debug for more detail.",
	}
}
