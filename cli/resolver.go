package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] that parses YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// The YAML document must be a flat mapping of flag names to values. Flag
// names with hyphens (e.g., "log-level") may use underscores in the config
// file (e.g., "log_level"); both forms resolve.
//
// Example config file:
//
//	log_level: debug
//	log-format: json
//	log-pretty: true
//
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return config{}, nil
	}

	var raw map[string]any

	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		// Parse error - return empty config
		return config{}, nil
	}

	values := make(config, len(raw))

	for key, val := range raw {
		// Kong requires numbers as strings for parsing
		switch v := val.(type) {
		case int:
			values[key] = strconv.Itoa(v)
		case int64:
			values[key] = strconv.FormatInt(v, 10)
		case uint64:
			values[key] = strconv.FormatUint(v, 10)
		case float64:
			values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			values[key] = val
		}
	}

	return values, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// No validation needed - the config was already parsed successfully
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but config keys may use
	// underscores. Try both forms.
	name := flag.Name
	underscoreName := strings.ReplaceAll(name, "-", "_")

	// Look up the value in our config
	if value, ok := r[name]; ok {
		return value, nil
	}

	// Try underscore variant
	if value, ok := r[underscoreName]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
