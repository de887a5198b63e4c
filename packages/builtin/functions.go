package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownFunction is returned by Call for a name that is not registered.
var ErrUnknownFunction = errors.New("unknown function")

// Func evaluates a function call with its already unquoted arguments.
type Func func(args []string) (string, error)

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = r.funcNow
	r.funcs["date"] = r.funcDate
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["timestampMs"] = r.funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["basicAuth"] = funcBasicAuth
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["env"] = funcEnv
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names lists the registered functions in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the shape name(args).
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(expr)
}

// Call evaluates expr, e.g. `base64("user:pass")`.
func (r *Registry) Call(expr string) (string, error) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return "", fmt.Errorf("not a function call: %s", expr)
	}

	name := matches[1]
	fn, ok := r.funcs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	out, err := fn(args)
	if err != nil {
		return "", fmt.Errorf("%s(): %w", name, err)
	}
	return out, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func requireArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expects %d argument(s), got %d", n, len(args))
	}
	return nil
}

func (r *Registry) funcNow(_ []string) (string, error) {
	return r.now().UTC().Format(time.RFC3339), nil
}

func (r *Registry) funcDate(args []string) (string, error) {
	format := "2006-01-02"
	if len(args) >= 1 {
		format = args[0]
	}
	return r.now().UTC().Format(format), nil
}

func (r *Registry) funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(r.now().Unix(), 10), nil
}

func (r *Registry) funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(r.now().UnixMilli(), 10), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.New().String(), nil
}

func funcRandom(args []string) (string, error) {
	min, max := 0, 100
	if len(args) >= 2 {
		var err error
		if min, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("min argument %q is not a valid integer", args[0])
		}
		if max, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("max argument %q is not a valid integer", args[1])
		}
	}
	if max < min {
		return "", fmt.Errorf("max %d is below min %d", max, min)
	}
	return strconv.Itoa(rand.Intn(max-min+1) + min), nil
}

func funcRandomString(args []string) (string, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return "", fmt.Errorf("length argument %q is not a valid length", args[0])
		}
		length = v
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcBase64(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcBase64Decode(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// funcBasicAuth renders the credentials part of a Basic Authorization header.
func funcBasicAuth(args []string) (string, error) {
	if err := requireArgs(args, 2); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0] + ":" + args[1])), nil
}

func funcSHA256(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(args[0]))
	return hex.EncodeToString(hash[:]), nil
}

func funcURLEncode(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	return url.QueryEscape(args[0]), nil
}

func funcEnv(args []string) (string, error) {
	if err := requireArgs(args, 1); err != nil {
		return "", err
	}
	value, ok := os.LookupEnv(args[0])
	if !ok && len(args) >= 2 {
		return args[1], nil
	}
	return value, nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
