package env

import (
	"fmt"
	neturl "net/url"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/builtin"
	"github.com/sirupsen/logrus"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} expressions in request input. An expression is
// one of:
//   - $NAME: the process environment variable NAME
//   - name(args): a builtin function call
//   - name: a user variable
//
// Unresolved expressions are left in place and logged at warn level.
type Resolver struct {
	variables map[string]string
	funcs     *builtin.Registry
	log       logrus.FieldLogger
}

func NewResolver(log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		variables: make(map[string]string),
		funcs:     builtin.NewRegistry(),
		log:       log,
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	v, ok := r.variables[name]
	return v, ok
}

// lookup evaluates one expression. ok is false when it cannot be resolved.
func (r *Resolver) lookup(expr string) (string, bool) {
	if strings.HasPrefix(expr, "$") {
		return os.LookupEnv(expr[1:])
	}

	if builtin.IsCall(expr) {
		out, err := r.funcs.Call(expr)
		if err != nil {
			r.log.WithError(err).WithField("expr", expr).Warn("Template function failed")
			return "", false
		}
		return out, true
	}

	v, ok := r.variables[expr]
	return v, ok
}

func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		r.log.WithField("expr", expr).Warn("Unresolved template expression")
		return match
	})
}

// ResolveLines resolves every line, e.g. "Name: value" header lines.
func (r *Resolver) ResolveLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = r.Resolve(line)
	}
	return out
}

// ResolveValues resolves every value of data. Keys are left alone.
func (r *Resolver) ResolveValues(data neturl.Values) neturl.Values {
	if data == nil {
		return nil
	}
	out := make(neturl.Values, len(data))
	for k, vs := range data {
		out[k] = r.ResolveLines(vs)
	}
	return out
}

// Unresolved returns the expressions in input that cannot be resolved.
func (r *Resolver) Unresolved(input string) []string {
	var missing []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if builtin.IsCall(expr) {
			continue
		}
		if _, ok := r.lookup(expr); !ok {
			missing = append(missing, expr)
		}
	}
	return missing
}

// Strict resolves input and fails if any expression other than a function
// call is left unresolved.
func (r *Resolver) Strict(input string) (string, error) {
	if missing := r.Unresolved(input); len(missing) > 0 {
		return "", fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
	}
	return r.Resolve(input), nil
}
