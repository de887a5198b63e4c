package env

import (
	"os"
	"strings"
)

// VarPrefix marks environment variables that become template variables,
// e.g. HITREQ_VAR_token=abc defines {{token}}.
const VarPrefix = "HITREQ_VAR_"

// MergeVariables combines sources, later ones taking precedence.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns the process environment variables starting with
// prefix, keyed by the rest of their name.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
			result[name] = value
		}
	}
	return result
}

// ParseAssignments turns "name=value" strings into a map. Entries without
// "=" or with an empty name are skipped.
func ParseAssignments(pairs []string) map[string]string {
	result := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, found := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			continue
		}
		result[name] = value
	}
	return result
}
