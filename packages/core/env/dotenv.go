package env

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultDotEnv is read when no env file is named and it exists.
const DefaultDotEnv = ".env"

// LoadDotEnv parses a .env file and returns key-value pairs.
// Supports: KEY=value, export KEY=value, KEY="quoted value",
// KEY='single quoted', # comments
func LoadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}

	return result, nil
}

// LoadDotEnvFile loads path, or DefaultDotEnv when path is empty. A missing
// default file yields no variables; a missing named file is an error.
func LoadDotEnvFile(path string) (map[string]string, error) {
	if path != "" {
		return LoadDotEnv(path)
	}
	vars, err := LoadDotEnv(DefaultDotEnv)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	return vars, err
}

// Export sets vars in the process environment so {{$NAME}} sees them.
// Variables already set are left alone.
func Export(vars map[string]string) {
	for k, v := range vars {
		if _, ok := os.LookupEnv(k); !ok {
			_ = os.Setenv(k, v) // only fails for invalid key names
		}
	}
}
