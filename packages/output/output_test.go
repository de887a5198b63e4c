package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	hitreq "github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsole(verbose bool) (*ConsoleFormatter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	f := NewConsoleFormatter(
		WithWriter(&out),
		WithErrWriter(&errOut),
		WithVerbose(verbose),
		WithNoColor(true),
	)
	return f, &out, &errOut
}

func TestConsole_FormatResult(t *testing.T) {
	f, out, errOut := newConsole(false)

	require.NoError(t, f.FormatResult(&hitreq.Result{Body: []byte("hello"), StatusCode: 200}))
	assert.Equal(t, "hello\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestConsole_FormatResultWithHeader(t *testing.T) {
	f, out, _ := newConsole(false)

	result := &hitreq.Result{
		Body:           []byte("hi"),
		Header:         "HTTP/1.1 200 OK\r\n\r\n",
		HeaderCaptured: true,
	}
	require.NoError(t, f.FormatResult(result))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "hi", decoded["response"])
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", decoded["header"])
}

func TestConsole_VerboseSummary(t *testing.T) {
	f, out, errOut := newConsole(true)

	require.NoError(t, f.FormatResult(&hitreq.Result{
		Body:         []byte("{}\n"),
		StatusCode:   404,
		ContentType:  "application/json",
		EffectiveURL: "http://example.test/missing",
		Duration:     42 * time.Millisecond,
	}))

	assert.Equal(t, "{}\n", out.String())
	assert.Contains(t, errOut.String(), "404 Not Found http://example.test/missing (42ms)")
	assert.Contains(t, errOut.String(), "Content-Type: application/json")
	assert.Contains(t, errOut.String(), "Body: 3 bytes")
}

func TestConsole_FormatError(t *testing.T) {
	f, out, _ := newConsole(false)

	f.FormatError(&hitreq.RequestError{
		Kind: hitreq.KindTransport,
		URL:  "http://127.0.0.1:1/",
		Err:  errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
	})
	assert.Equal(t, "cURL Error: dial tcp 127.0.0.1:1: connect: connection refused\n", out.String())

	out.Reset()
	f.FormatError(errors.New("plain"))
	assert.Equal(t, "cURL Error: plain\n", out.String())
}

func TestConsole_FormatSelection(t *testing.T) {
	f, out, _ := newConsole(false)

	f.FormatSelection(map[string]string{"id": "7"}, []string{"id"})
	assert.Equal(t, "7\n", out.String())

	out.Reset()
	f.FormatSelection(map[string]string{"b": "2", "a": "1"}, nil)
	assert.Equal(t, "a = 1\nb = 2\n", out.String())

	out.Reset()
	f.FormatSelection(map[string]string{"status": "200"}, []string{"status", "missing"})
	assert.Equal(t, "status = 200\n", out.String())
}

func TestConsole_FormatWarning(t *testing.T) {
	f, _, errOut := newConsole(false)
	f.FormatWarning("Schema", errors.New("id is required"))
	assert.Equal(t, "Schema: id is required\n", errOut.String())
}

func TestJSON_FormatResult(t *testing.T) {
	var out bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&out), WithIndent(false))

	require.NoError(t, f.FormatResult(&hitreq.Result{
		Body:       []byte(`{"a":1}`),
		StatusCode: 201,
		Duration:   1500 * time.Microsecond,
	}))

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.True(t, decoded.OK)
	assert.Equal(t, 201, decoded.StatusCode)
	assert.Equal(t, `{"a":1}`, decoded.Body)
	assert.Equal(t, 1.5, decoded.Duration)
	assert.Nil(t, decoded.Error)
}

func TestJSON_FormatError(t *testing.T) {
	var out bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&out))

	f.FormatError(&hitreq.RequestError{Kind: hitreq.KindTimeout, URL: "http://slow.test/", Err: errors.New("deadline")})

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.False(t, decoded.OK)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "timeout", decoded.Error.Kind)
	assert.Equal(t, "http://slow.test/", decoded.Error.URL)
	assert.Equal(t, "deadline", decoded.Error.Message)
}
