package output

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	hitreq "github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/fatih/color"
)

// Formatter renders the outcome of one request.
type Formatter interface {
	FormatResult(result *hitreq.Result) error
	FormatSelection(values map[string]string, order []string)
	FormatError(err error)
	FormatWarning(label string, err error)
}

type ConsoleFormatter struct {
	writer    io.Writer
	errWriter io.Writer
	verbose   bool
	noColor   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithErrWriter sets where the verbose summary and warnings go.
func WithErrWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.errWriter = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatResult prints the body, or the response/header envelope when the
// header block was captured. With verbose on, a status line goes to the
// error writer first.
func (f *ConsoleFormatter) FormatResult(result *hitreq.Result) error {
	if f.verbose {
		f.formatSummary(result)
	}

	out, err := result.Output()
	if err != nil {
		return err
	}
	fmt.Fprint(f.writer, out)
	if out != "" && out[len(out)-1] != '\n' {
		fmt.Fprintln(f.writer)
	}
	return nil
}

func (f *ConsoleFormatter) formatSummary(result *hitreq.Result) {
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	status := fmt.Sprintf("%d %s", result.StatusCode, http.StatusText(result.StatusCode))
	fmt.Fprintf(f.errWriter, "%s %s %s\n", statusColor(result)(status), bold(result.EffectiveURL), cyan(fmt.Sprintf("(%dms)", result.DurationMs())))
	if result.ContentType != "" {
		fmt.Fprintf(f.errWriter, "    Content-Type: %s\n", result.ContentType)
	}
	fmt.Fprintf(f.errWriter, "    Body: %d bytes\n", len(result.Body))
}

func statusColor(result *hitreq.Result) func(a ...any) string {
	switch {
	case result.IsSuccess():
		return color.New(color.FgGreen).SprintFunc()
	case result.IsRedirect():
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

// FormatSelection prints selected values. A single value is printed bare so
// it can be piped; several are printed as "expr = value" in order.
func (f *ConsoleFormatter) FormatSelection(values map[string]string, order []string) {
	if len(order) == 1 {
		if value, ok := values[order[0]]; ok {
			fmt.Fprintln(f.writer, value)
		}
		return
	}

	if order == nil {
		for k := range values {
			order = append(order, k)
		}
		sort.Strings(order)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	for _, expr := range order {
		value, ok := values[expr]
		if !ok {
			continue
		}
		fmt.Fprintf(f.writer, "%s = %s\n", cyan(expr), value)
	}
}

// FormatError prints the "cURL Error: <cause>" diagnostic line. For request
// failures the cause is the underlying transport error.
func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s%s\n", red(hitreq.DiagnosticPrefix), Cause(err))
}

// FormatWarning prints a non-fatal problem, e.g. a failed schema check, to
// the error writer.
func (f *ConsoleFormatter) FormatWarning(label string, err error) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(f.errWriter, "%s %v\n", yellow(label+":"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s version %s\n", bold("hitreq"), version)
}

// Cause returns the text shown after the diagnostic prefix.
func Cause(err error) string {
	var reqErr *hitreq.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return reqErr.Err.Error()
	}
	return err.Error()
}
