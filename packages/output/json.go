package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	hitreq "github.com/abdul-hamid-achik/hitreq/packages/http"
)

// JSONOutput is the machine readable form of one request outcome
type JSONOutput struct {
	OK           bool              `json:"ok"`
	StatusCode   int               `json:"statusCode,omitempty"`
	EffectiveURL string            `json:"effectiveUrl,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	Duration     float64           `json:"duration"` // milliseconds
	Header       string            `json:"header,omitempty"`
	Body         string            `json:"body,omitempty"`
	Selected     map[string]string `json:"selected,omitempty"`
	Error        *JSONError        `json:"error,omitempty"`
}

// JSONError describes a failed request
type JSONError struct {
	Kind    string `json:"kind"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

var (
	_ Formatter = (*ConsoleFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
)

// JSONFormatter writes one JSON document per request
type JSONFormatter struct {
	writer    io.Writer
	errWriter io.Writer
	indent    bool
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:    os.Stdout,
		errWriter: os.Stderr,
		indent:    true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// WithJSONErrWriter sets where warnings go, keeping the JSON stream clean.
func WithJSONErrWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.errWriter = w
	}
}

func WithIndent(indent bool) JSONOption {
	return func(f *JSONFormatter) {
		f.indent = indent
	}
}

func (f *JSONFormatter) FormatResult(result *hitreq.Result) error {
	return f.write(resultOutput(result))
}

func (f *JSONFormatter) FormatSelection(values map[string]string, _ []string) {
	_ = f.write(JSONOutput{OK: true, Selected: values})
}

func (f *JSONFormatter) FormatError(err error) {
	out := JSONOutput{Error: &JSONError{Kind: "error", Message: Cause(err)}}

	var reqErr *hitreq.RequestError
	if errors.As(err, &reqErr) {
		out.Error.Kind = reqErr.Kind.String()
		out.Error.URL = reqErr.URL
	}
	_ = f.write(out)
}

func (f *JSONFormatter) FormatWarning(label string, err error) {
	fmt.Fprintf(f.errWriter, "%s: %v\n", label, err)
}

func resultOutput(result *hitreq.Result) JSONOutput {
	return JSONOutput{
		OK:           true,
		StatusCode:   result.StatusCode,
		EffectiveURL: result.EffectiveURL,
		ContentType:  result.ContentType,
		Duration:     float64(result.Duration.Microseconds()) / 1000,
		Header:       result.Header,
		Body:         result.BodyString(),
	}
}

func (f *JSONFormatter) write(out JSONOutput) error {
	enc := json.NewEncoder(f.writer)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
