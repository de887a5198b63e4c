package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/tidwall/gjson"
)

// Source is the part of a result a selector reads from.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Selector names one value of a result.
type Selector struct {
	Source Source
	// Path is a gjson path for SourceBody or a header name for SourceHeader.
	Path string
}

// ParseSelector reads a selector expression:
//
//	status              response status code
//	duration            request duration in milliseconds
//	header.<Name>       header value from the final response
//	body                whole body
//	body.<path>, <path> gjson path into a JSON body
func ParseSelector(expr string) (Selector, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return Selector{}, fmt.Errorf("empty selector")
	case expr == "status":
		return Selector{Source: SourceStatus}, nil
	case expr == "duration":
		return Selector{Source: SourceDuration}, nil
	case expr == "body":
		return Selector{Source: SourceBody}, nil
	case strings.HasPrefix(expr, "body."):
		return Selector{Source: SourceBody, Path: strings.TrimPrefix(expr, "body.")}, nil
	case strings.HasPrefix(expr, "header."):
		name := strings.TrimPrefix(expr, "header.")
		if name == "" {
			return Selector{}, fmt.Errorf("selector %q names no header", expr)
		}
		return Selector{Source: SourceHeader, Path: name}, nil
	case expr == "header":
		return Selector{}, fmt.Errorf("selector %q names no header", expr)
	default:
		return Selector{Source: SourceBody, Path: expr}, nil
	}
}

// NeedsHeader reports whether the selector reads the captured header block.
func (s Selector) NeedsHeader() bool {
	return s.Source == SourceHeader
}

type Extractor struct {
	result   *http.Result
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(result *http.Result) *Extractor {
	e := &Extractor{result: result}
	if gjson.ValidBytes(result.Body) {
		e.bodyJSON = gjson.ParseBytes(result.Body)
		e.isJSON = true
	}
	return e
}

// Extract returns the selected value as text. Objects and arrays are returned
// as raw JSON.
func (e *Extractor) Extract(sel Selector) (string, bool) {
	switch sel.Source {
	case SourceBody:
		return e.extractFromBody(sel.Path)
	case SourceHeader:
		return e.extractFromHeader(sel.Path)
	case SourceStatus:
		return strconv.Itoa(e.result.StatusCode), true
	case SourceDuration:
		return strconv.FormatInt(e.result.DurationMs(), 10), true
	default:
		return "", false
	}
}

func (e *Extractor) extractFromBody(path string) (string, bool) {
	if path == "" {
		return e.result.BodyString(), true
	}
	if !e.isJSON {
		return "", false
	}

	value := e.bodyJSON.Get(path)
	if !value.Exists() {
		return "", false
	}
	if value.IsObject() || value.IsArray() {
		return value.Raw, true
	}
	return value.String(), true
}

func (e *Extractor) extractFromHeader(name string) (string, bool) {
	if !e.result.HeaderCaptured {
		return "", false
	}
	value := e.result.HeaderValue(name)
	if value == "" {
		return "", false
	}
	return value, true
}

// Select parses expr and extracts it from result.
func Select(result *http.Result, expr string) (string, error) {
	sel, err := ParseSelector(expr)
	if err != nil {
		return "", err
	}
	value, ok := NewExtractor(result).Extract(sel)
	if !ok {
		return "", fmt.Errorf("nothing matched %q", expr)
	}
	return value, nil
}

// SelectAll extracts every expression, keyed by the expression.
func SelectAll(result *http.Result, exprs []string) (map[string]string, error) {
	extractor := NewExtractor(result)
	results := make(map[string]string, len(exprs))

	for _, expr := range exprs {
		sel, err := ParseSelector(expr)
		if err != nil {
			return nil, err
		}
		if value, ok := extractor.Extract(sel); ok {
			results[expr] = value
		}
	}

	return results, nil
}
