package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment. Existing variables are not overwritten.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %q; %w", path, err)
	}
	return nil
}

// ExpandEnv substitutes ${VAR} references in raw config bytes with the
// corresponding environment variable. Unresolved references to secrets
// (names ending in _API_KEY or _TOKEN) become "${VAR}-not-set"
// placeholders so a pipeline that never touches that provider still
// runs; any other unresolved reference is an error.
func ExpandEnv(raw []byte) ([]byte, error) {
	var missing []string

	expanded := envVarPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := string(envVarPattern.FindSubmatch(match)[1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if strings.HasSuffix(name, "_API_KEY") || strings.HasSuffix(name, "_TOKEN") {
			return []byte("${" + name + "}-not-set")
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved environment variables: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// IsPlaceholderKey reports whether a resolved value is an unresolved
// secret placeholder produced by ExpandEnv.
func IsPlaceholderKey(value string) bool {
	return strings.HasPrefix(value, "${") && strings.HasSuffix(value, "-not-set")
}
