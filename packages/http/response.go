package http

import (
	"encoding/json"
	"strings"
	"time"
)

// Result is the outcome of a successful request.
type Result struct {
	Body []byte
	// Header is the raw header block of every response in the redirect
	// chain. It is empty unless header capture was enabled.
	Header         string
	HeaderCaptured bool
	HeaderSize     int
	StatusCode     int
	ContentType    string
	EffectiveURL   string
	Duration       time.Duration
}

// envelope is the textual shape of a header-capturing result.
type envelope struct {
	Response string `json:"response"`
	Header   string `json:"header"`
}

func (r *Result) BodyString() string {
	return string(r.Body)
}

// JSON encodes the result as {"response": <body>, "header": <header block>}.
func (r *Result) JSON() ([]byte, error) {
	return json.Marshal(envelope{
		Response: string(r.Body),
		Header:   r.Header,
	})
}

// Output returns the body, or the JSON envelope when the header was captured.
func (r *Result) Output() (string, error) {
	if !r.HeaderCaptured {
		return r.BodyString(), nil
	}
	data, err := r.JSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HeaderValue returns the value of name from the last response in the
// captured header block.
func (r *Result) HeaderValue(name string) string {
	blocks := strings.Split(strings.TrimRight(r.Header, "\r\n"), "\r\n\r\n")
	last := blocks[len(blocks)-1]

	for i, line := range strings.Split(last, "\r\n") {
		if i == 0 {
			continue // status line
		}
		key, value, ok := ParseHeaderLine(line)
		if ok && strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

func (r *Result) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

func (r *Result) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Result) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Result) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Result) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Result) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
